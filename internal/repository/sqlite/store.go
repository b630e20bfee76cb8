package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/lock"
	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - initial tables
const currentSchemaVersion = 1

// Store persists state in an embedded SQLite database. Writers take the database write
// lock at BEGIN (immediate transactions); other processes wait up to the busy timeout.
type Store struct {
	db   *sql.DB
	gate *lock.Locker
	opts state.Options
}

// Open creates or opens the database at path and applies the schema.
func Open(path string, opts state.Options) (*Store, error) {
	opts = opts.WithDefaults()
	db, err := database.NewSQLiteDB(path, opts.LockTimeout)
	if err != nil {
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{
		db:   db,
		gate: lock.NewLocker(path, "", opts.LockTimeout),
		opts: opts,
	}, nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// WithExclusiveAccess implements state.Store.
func (s *Store) WithExclusiveAccess(ctx context.Context, fn state.Mutation) error {
	release, err := s.gate.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.translate(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	current, err := loadState(ctx, tx)
	if err != nil {
		return s.translate(err)
	}

	commit, err := state.Apply(current, fn, s.opts.Now(), s.opts.Location)
	if err != nil || commit == nil {
		return err
	}

	if err := applyChanges(ctx, tx, commit.Changes); err != nil {
		return s.translate(err)
	}
	if err := appendLedger(ctx, tx, commit.Entry, s.opts.Location); err != nil {
		return s.translate(err)
	}
	if err := tx.Commit(); err != nil {
		return s.translate(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// Snapshot implements state.Store.
func (s *Store) Snapshot(ctx context.Context) (*state.State, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, s.translate(err)
	}
	defer tx.Rollback()
	return loadState(ctx, tx)
}

// Ledger implements state.Store.
func (s *Store) Ledger(ctx context.Context, month time.Month, day int) ([]state.LedgerEntry, error) {
	return loadLedger(ctx, s.db, month, day)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) translate(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch {
	case sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked:
		return &lock.TimeoutError{Resource: "sqlite state", Waited: s.opts.LockTimeout}
	case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique:
		msg := sqliteErr.Error()
		switch {
		case strings.Contains(msg, "attendances."):
			return fmt.Errorf("%w: %s", attendance.ErrDuplicateClockIn, msg)
		case strings.Contains(msg, "shift_assignments."):
			return fmt.Errorf("%w: %s", shift.ErrShiftOccupied, msg)
		}
	}
	return err
}
