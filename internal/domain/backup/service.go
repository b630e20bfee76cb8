package backup

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
)

var (
	ErrBackupNotFound = errors.New("backup not found")
	ErrInvalidName    = errors.New("invalid backup name")
)

// Info describes one stored backup.
type Info struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	// Checksum is the hex BLAKE2b-256 of the compressed file; only set by Run.
	Checksum string `json:"checksum,omitempty"`
}

// Service writes compressed snapshots of the store and prunes old ones.
type Service interface {
	// Run stores a new backup and keeps only the newest configured number.
	Run(ctx context.Context) (Info, error)

	// List returns stored backups, newest first.
	List(ctx context.Context) ([]Info, error)

	// Open decodes a stored backup for inspection.
	Open(ctx context.Context, name string) (*state.State, error)
}
