package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/lock"
	"github.com/gofrs/flock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow = time.Date(2025, 4, 2, 14, 30, 0, 0, time.UTC)
	system   = audit.System("test")
)

func openTestStore(t *testing.T, timeout time.Duration) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "shiftclock.json"), state.Options{
		LockTimeout: timeout,
		Location:    time.UTC,
		Now:         func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return s
}

func registerEmployee(id string) state.Mutation {
	return func(s *state.State) (*state.State, error) {
		s.PutEmployee(employee.Employee{
			ID:         id,
			FullName:   "Employee " + id,
			Role:       employee.RoleCollaborator,
			HourlyRate: decimal.RequireFromString("12.50"),
		})
		s.AppendAudit(system, audit.ActionEmployeeRegister, "registered "+id, fixedNow)
		return s, nil
	}
}

func TestOpen_CreatesParsableDocument(t *testing.T) {
	s := openTestStore(t, time.Second)

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.EqualValues(t, state.DocumentVersion, doc["version"])

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Employees)
	assert.Empty(t, snap.Audit)
}

func TestWithExclusiveAccess_CommitsAndRecordsLedger(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, time.Second)

	require.NoError(t, s.WithExclusiveAccess(ctx, registerEmployee("ana")))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	e, ok := snap.Employee("ana")
	require.True(t, ok)
	assert.True(t, e.HourlyRate.Equal(decimal.RequireFromString("12.5")))
	require.Len(t, snap.Audit, 1)

	entries, err := s.Ledger(ctx, time.April, 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Changes.Employees, 1)
	assert.Len(t, entries[0].Changes.Audit, 1)

	other, err := s.Ledger(ctx, time.April, 3)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestWithExclusiveAccess_ErrorAndNilWriteNothing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, time.Second)
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	boom := errors.New("validation failed")
	err = s.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		cur.PutEmployee(employee.Employee{ID: "ghost"})
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, s.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		cur.PutEmployee(employee.Employee{ID: "ghost"})
		return nil, nil
	}))

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := s.Ledger(ctx, time.April, 2)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWithExclusiveAccess_ConcurrentWritersLoseNothing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 10*time.Second)

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
				cur.AppendAudit(system, audit.ActionNote, "writer", fixedNow)
				return cur, nil
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Audit, writers)
	for i, e := range snap.Audit {
		assert.Equal(t, int64(i+1), e.Seq)
	}
}

func TestWithExclusiveAccess_LockTimeout(t *testing.T) {
	s := openTestStore(t, 100*time.Millisecond)

	held := flock.New(s.Path() + ".lock")
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	err = s.WithExclusiveAccess(context.Background(), registerEmployee("ana"))
	require.Error(t, err)
	assert.True(t, state.IsRetryable(err))
	var timeoutErr *lock.TimeoutError
	assert.True(t, errors.As(err, &timeoutErr))
}

func TestWithExclusiveAccess_HistoryGuardBlocksCommit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, time.Second)
	require.NoError(t, s.WithExclusiveAccess(ctx, registerEmployee("ana")))

	err := s.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		cur.Audit = cur.Audit[:0]
		return cur, nil
	})
	assert.ErrorIs(t, err, state.ErrAuditTampering)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Audit, 1)
}

func TestSnapshot_CorruptDocument(t *testing.T) {
	s := openTestStore(t, time.Second)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))

	_, err := s.Snapshot(context.Background())
	assert.ErrorIs(t, err, state.ErrCorruptDocument)
}

func TestWithAuditObserver(t *testing.T) {
	ctx := context.Background()
	var seen []audit.Entry
	s := state.WithAuditObserver(openTestStore(t, time.Second), func(e audit.Entry) {
		seen = append(seen, e)
	})

	require.NoError(t, s.WithExclusiveAccess(ctx, registerEmployee("ana")))
	_ = s.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		cur.AppendAudit(system, audit.ActionNote, "rejected", fixedNow)
		return nil, errors.New("nope")
	})

	require.Len(t, seen, 1)
	assert.Equal(t, audit.ActionEmployeeRegister, seen[0].Action)
}
