package backup

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/backup"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/storage"
	"github.com/ulikunitz/xz"
	"golang.org/x/crypto/blake2b"
)

const (
	prefix     = "backups"
	nameLayout = "state_20060102_150405"
	extension  = ".json.xz"
)

type BackupServiceImpl struct {
	store   state.Store
	storage storage.FileStorage
	clock   clock.Clock
	keep    int
}

// NewBackupService keeps the newest keep backups; keep < 1 keeps one.
func NewBackupService(store state.Store, fs storage.FileStorage, clk clock.Clock, keep int) backup.Service {
	if keep < 1 {
		keep = 1
	}
	return &BackupServiceImpl{
		store:   store,
		storage: fs,
		clock:   clk,
		keep:    keep,
	}
}

func (s *BackupServiceImpl) Run(ctx context.Context) (backup.Info, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return backup.Info{}, fmt.Errorf("failed to read state: %w", err)
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return backup.Info{}, fmt.Errorf("failed to create xz writer: %w", err)
	}
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		return backup.Info{}, fmt.Errorf("failed to encode state: %w", err)
	}
	if err := w.Close(); err != nil {
		return backup.Info{}, fmt.Errorf("failed to compress state: %w", err)
	}

	sum := blake2b.Sum256(buf.Bytes())
	checksum := hex.EncodeToString(sum[:])

	name := s.clock.Now().UTC().Format(nameLayout) + extension
	obj, err := s.storage.Upload(ctx, &buf, path.Join(prefix, name))
	if err != nil {
		return backup.Info{}, fmt.Errorf("failed to store backup: %w", err)
	}
	slog.Info("Backup written", "name", name, "size", obj.Size, "blake2b", checksum)

	if err := s.prune(ctx); err != nil {
		slog.Error("Failed to prune backups", "error", err)
	}

	return backup.Info{Name: name, Size: obj.Size, CreatedAt: createdAt(name), Checksum: checksum}, nil
}

func (s *BackupServiceImpl) List(ctx context.Context) ([]backup.Info, error) {
	objs, err := s.storage.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	infos := []backup.Info{}
	for _, o := range objs {
		name := path.Base(o.Key)
		if !strings.HasPrefix(name, "state_") || !strings.HasSuffix(name, extension) {
			continue
		}
		infos = append(infos, backup.Info{Name: name, Size: o.Size, CreatedAt: createdAt(name)})
	}
	// names sort chronologically
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name > infos[j].Name })
	return infos, nil
}

func (s *BackupServiceImpl) Open(ctx context.Context, name string) (*state.State, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || !strings.HasSuffix(name, extension) {
		return nil, fmt.Errorf("%w: %q", backup.ErrInvalidName, name)
	}
	rc, err := s.storage.Download(ctx, path.Join(prefix, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", backup.ErrBackupNotFound, name)
	}
	defer rc.Close()

	r, err := xz.NewReader(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to open xz stream: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress backup: %w", err)
	}
	st := state.New()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	return st.Normalize(), nil
}

func (s *BackupServiceImpl) prune(ctx context.Context) error {
	infos, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos[min(len(infos), s.keep):] {
		if err := s.storage.Delete(ctx, path.Join(prefix, info.Name)); err != nil {
			return err
		}
		slog.Info("Backup pruned", "name", info.Name)
	}
	return nil
}

func createdAt(name string) time.Time {
	t, err := time.Parse(nameLayout, strings.TrimSuffix(name, extension))
	if err != nil {
		return time.Time{}
	}
	return t
}
