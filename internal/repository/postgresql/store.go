package postgresql

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/lock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var schemaSQL string

// advisoryLockKey identifies the state lock among other pg_advisory users of the database.
const advisoryLockKey int64 = 0x5348494654 // "SHIFT"

// Store persists state in relational tables. Writers serialize on a transaction-scoped
// advisory lock whose wait is bounded by lock_timeout; unique indexes back the
// (employee, date) and (date, slot) invariants.
type Store struct {
	db   *database.DB
	gate *lock.Locker
	opts state.Options
}

func NewStore(ctx context.Context, db *database.DB, opts state.Options) (*Store, error) {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	opts = opts.WithDefaults()
	return &Store{
		db:   db,
		gate: lock.NewLocker("postgres state", "", opts.LockTimeout),
		opts: opts,
	}, nil
}

// WithExclusiveAccess implements state.Store.
func (s *Store) WithExclusiveAccess(ctx context.Context, fn state.Mutation) error {
	release, err := s.gate.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	err = WithTransaction(ctx, s.db, func(ctx context.Context, tx pgx.Tx) error {
		q := GetQuerier(ctx, s.db)

		timeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.opts.LockTimeout.Milliseconds())
		if _, err := q.Exec(ctx, timeout); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
		if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockKey); err != nil {
			return err
		}

		current, err := loadState(ctx, q)
		if err != nil {
			return err
		}

		now := s.opts.Now()
		commit, err := state.Apply(current, fn, now, s.opts.Location)
		if err != nil || commit == nil {
			return err
		}

		if err := applyChanges(ctx, q, commit.Changes); err != nil {
			return err
		}
		return appendLedger(ctx, q, commit.Entry, s.opts.Location)
	})
	return s.translate(err)
}

// Snapshot implements state.Store.
func (s *Store) Snapshot(ctx context.Context) (*state.State, error) {
	var st *state.State
	// one read-only transaction so all tables come from the same snapshot
	err := WithTransaction(ctx, s.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SET TRANSACTION ISOLATION LEVEL REPEATABLE READ READ ONLY`); err != nil {
			return err
		}
		var err error
		st, err = loadState(ctx, GetQuerier(ctx, s.db))
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Ledger implements state.Store.
func (s *Store) Ledger(ctx context.Context, month time.Month, day int) ([]state.LedgerEntry, error) {
	return loadLedger(ctx, s.db.Pool, month, day)
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// translate maps PostgreSQL errors onto domain errors.
func (s *Store) translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03": // lock_not_available
			return &lock.TimeoutError{Resource: "postgres state", Waited: s.opts.LockTimeout}
		case "23505": // unique_violation
			switch pgErr.ConstraintName {
			case "attendances_employee_date_key":
				return fmt.Errorf("%w: %s", attendance.ErrDuplicateClockIn, pgErr.Detail)
			case "shift_assignments_date_slot_key":
				return fmt.Errorf("%w: %s", shift.ErrShiftOccupied, pgErr.Detail)
			}
		}
	}
	return err
}
