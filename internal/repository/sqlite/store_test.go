package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow = time.Date(2025, 4, 2, 14, 30, 0, 0, time.UTC)
	system   = audit.System("test")
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "shiftclock.db"), state.Options{
		LockTimeout: 5 * time.Second,
		Location:    time.UTC,
		Now:         func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func registerEmployee(id string) state.Mutation {
	return func(s *state.State) (*state.State, error) {
		s.PutEmployee(employee.Employee{
			ID:         id,
			FullName:   "Employee " + id,
			Role:       employee.RoleCollaborator,
			HourlyRate: decimal.RequireFromString("12.50"),
			CreatedAt:  fixedNow,
			UpdatedAt:  fixedNow,
		})
		s.AppendAudit(system, audit.ActionEmployeeRegister, "registered "+id, fixedNow)
		return s, nil
	}
}

func TestStore_RoundTripsEveryTable(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.WithExclusiveAccess(ctx, registerEmployee("ana")))

	date := calendar.MustParse("2025-04-02")
	in := time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)
	err := s.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		cur.PutAttendance(attendance.Record{
			ID: "att-1", EmployeeID: "ana", Date: date, ClockIn: in,
			CreatedAt: fixedNow, UpdatedAt: fixedNow,
		})
		cur.PutAssignment(shift.Assignment{
			ID: "as-1", EmployeeID: "ana", Date: date, SlotTime: "09:00",
			Source: shift.SourceSelf, CreatedBy: "ana", CreatedAt: fixedNow,
		})
		cur.PutPattern(shift.Pattern{EmployeeID: "ana", Slots: []string{"09:00", "10:30"}, UpdatedAt: fixedNow})
		cur.AppendAudit(system, audit.ActionNote, "bulk", fixedNow)
		return cur, nil
	})
	require.NoError(t, err)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)

	rec, ok := snap.AttendanceFor("ana", date)
	require.True(t, ok)
	assert.True(t, rec.ClockIn.Equal(in))
	assert.Nil(t, rec.ClockOut)

	a, ok := snap.AssignmentAt(date, "09:00")
	require.True(t, ok)
	assert.Equal(t, shift.SourceSelf, a.Source)

	require.Contains(t, snap.RotationPatterns, "ana")
	assert.Equal(t, []string{"09:00", "10:30"}, snap.RotationPatterns["ana"].Slots)

	require.Len(t, snap.Audit, 2)
	assert.Equal(t, int64(2), snap.Audit[1].Seq)

	entries, err := s.Ledger(ctx, time.April, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStore_ClockOutUpdatesRecord(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.WithExclusiveAccess(ctx, registerEmployee("ana")))

	date := calendar.MustParse("2025-04-02")
	in := time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)
	out := time.Date(2025, 4, 2, 18, 0, 0, 0, time.UTC)
	require.NoError(t, s.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		cur.PutAttendance(attendance.Record{ID: "att-1", EmployeeID: "ana", Date: date, ClockIn: in, CreatedAt: fixedNow, UpdatedAt: fixedNow})
		return cur, nil
	}))
	require.NoError(t, s.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		rec, _ := cur.AttendanceFor("ana", date)
		rec.ClockOut = &out
		rec.NetHours, rec.OrdinaryHours, rec.OvertimeHours = 9, 8, 1
		cur.PutAttendance(rec)
		return cur, nil
	}))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	rec, ok := snap.AttendanceFor("ana", date)
	require.True(t, ok)
	require.NotNil(t, rec.ClockOut)
	assert.True(t, rec.ClockOut.Equal(out))
	assert.Equal(t, 1.0, rec.OvertimeHours)
}

func TestStore_ErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	boom := errors.New("validation failed")
	err := s.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		cur.PutEmployee(employee.Employee{ID: "ghost", Role: employee.RoleManager})
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Employees)

	entries, err := s.Ledger(ctx, time.April, 2)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_ConcurrentWritersLoseNothing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
				cur.AppendAudit(system, audit.ActionNote, "writer", fixedNow)
				return cur, nil
			})
		}()
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

func TestStore_HistoryGuardBlocksCommit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.WithExclusiveAccess(ctx, registerEmployee("ana")))

	err := s.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		delete(cur.Employees, "ana")
		return cur, nil
	})
	assert.ErrorIs(t, err, state.ErrEmployeeDeletion)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shiftclock.db")
	opts := state.Options{Location: time.UTC, Now: func() time.Time { return fixedNow }}

	s, err := Open(path, opts)
	require.NoError(t, err)
	require.NoError(t, s.WithExclusiveAccess(ctx, registerEmployee("ana")))
	require.NoError(t, s.Close())

	reopened, err := Open(path, opts)
	require.NoError(t, err)
	defer reopened.Close()

	snap, err := reopened.Snapshot(ctx)
	require.NoError(t, err)
	_, ok := snap.Employee("ana")
	assert.True(t, ok)
}
