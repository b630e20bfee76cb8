package filestore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/lock"
	"github.com/google/renameio/v2"
)

// Store keeps the whole state in one JSON document. Writers hold an advisory lock on
// "<doc>.lock"; documents are replaced with an atomic rename so lock-free readers see
// either the old or the new version, never a partial write. Every commit is also
// appended to "<doc>.ledger/MM-DD.jsonl".
type Store struct {
	path      string
	ledgerDir string
	locker    *lock.Locker
	opts      state.Options
}

// Open prepares a store at path, creating an empty document if none exists.
func Open(path string, opts state.Options) (*Store, error) {
	opts = opts.WithDefaults()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	s := &Store{
		path:      path,
		ledgerDir: path + ".ledger",
		locker:    lock.NewLocker(filepath.Base(path), path+".lock", opts.LockTimeout),
		opts:      opts,
	}

	release, err := s.locker.Acquire(context.Background())
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := s.write(state.New()); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat state document: %w", err)
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// WithExclusiveAccess implements state.Store.
func (s *Store) WithExclusiveAccess(ctx context.Context, fn state.Mutation) error {
	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	current, err := s.read()
	if err != nil {
		return err
	}

	commit, err := state.Apply(current, fn, s.opts.Now(), s.opts.Location)
	if err != nil || commit == nil {
		return err
	}

	if err := s.write(commit.Next); err != nil {
		return err
	}
	// the document is already committed; a ledger failure must not report it as lost
	if err := s.appendLedger(commit.Entry); err != nil {
		slog.Error("Failed to append ledger entry", "path", s.path, "error", err)
	}
	return nil
}

// Snapshot implements state.Store.
func (s *Store) Snapshot(ctx context.Context) (*state.State, error) {
	return s.read()
}

// Ledger implements state.Store.
func (s *Store) Ledger(ctx context.Context, month time.Month, day int) ([]state.LedgerEntry, error) {
	f, err := os.Open(s.ledgerFile(month, day))
	if errors.Is(err, fs.ErrNotExist) {
		return []state.LedgerEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	entries := []state.LedgerEntry{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e state.LedgerEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("decode ledger line: %w", err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return entries, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) read() (*state.State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read state document: %w", err)
	}
	st := &state.State{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("%w: %v", state.ErrCorruptDocument, err)
	}
	return st.Normalize(), nil
}

func (s *Store) write(st *state.State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state document: %w", err)
	}
	if err := renameio.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write state document: %w", err)
	}
	return nil
}

func (s *Store) ledgerFile(month time.Month, day int) string {
	return filepath.Join(s.ledgerDir, fmt.Sprintf("%02d-%02d.jsonl", int(month), day))
}

func (s *Store) appendLedger(entry state.LedgerEntry) error {
	if err := os.MkdirAll(s.ledgerDir, 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	local := entry.SavedAt.In(s.opts.Location)
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode ledger entry: %w", err)
	}

	f, err := os.OpenFile(s.ledgerFile(local.Month(), local.Day()), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	return f.Sync()
}
