package state

import (
	"context"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
)

// Mutation computes the next state from a private copy of the current one. Returning an
// error or a nil state commits nothing.
type Mutation func(current *State) (*State, error)

// Store is the persistence contract shared by the file, SQLite and PostgreSQL backends.
type Store interface {
	// WithExclusiveAccess loads fresh state under an exclusive lock, runs fn, checks the
	// history rules and commits atomically. Lock waits are bounded; exceeding the bound
	// returns a *LockTimeoutError.
	WithExclusiveAccess(ctx context.Context, fn Mutation) error

	// Snapshot returns the last committed state without locking. It may be stale and is
	// never used to enforce invariants.
	Snapshot(ctx context.Context) (*State, error)

	// Ledger returns the commits saved on month/day of any year, oldest first.
	Ledger(ctx context.Context, month time.Month, day int) ([]LedgerEntry, error)

	Close() error
}

// LedgerEntry is the per-commit snapshot of what was written.
type LedgerEntry struct {
	SavedAt time.Time `json:"saved_at"`
	Changes Changeset `json:"changes"`
}

// Options configure every backend.
type Options struct {
	LockTimeout time.Duration
	Location    *time.Location
	Now         func() time.Time
}

func (o Options) WithDefaults() Options {
	if o.LockTimeout <= 0 {
		o.LockTimeout = 5 * time.Second
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type observedStore struct {
	Store
	notify func(audit.Entry)
}

// WithAuditObserver wraps s so notify sees every audit entry after its commit succeeds.
func WithAuditObserver(s Store, notify func(audit.Entry)) Store {
	return &observedStore{Store: s, notify: notify}
}

func (o *observedStore) WithExclusiveAccess(ctx context.Context, fn Mutation) error {
	var appended []audit.Entry
	err := o.Store.WithExclusiveAccess(ctx, func(current *State) (*State, error) {
		appended = nil
		before := len(current.Audit)
		next, err := fn(current)
		if err != nil || next == nil {
			return next, err
		}
		if len(next.Audit) > before {
			appended = append([]audit.Entry{}, next.Audit[before:]...)
		}
		return next, nil
	})
	if err != nil {
		return err
	}
	for _, e := range appended {
		o.notify(e)
	}
	return nil
}
