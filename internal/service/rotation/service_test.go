package rotation

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/common"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/repository/filestore"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	bogota = time.FixedZone("COT", -5*3600)
	admin  = audit.Actor{ID: "boss", Admin: true, Origin: "test"}
	d      = calendar.MustParse
)

type fixture struct {
	svc   shift.SchedulerService
	store *filestore.Store
	clock *clock.Fixed
}

// newFixture opens a store whose "today" is the given date.
func newFixture(t *testing.T, today string) *fixture {
	t.Helper()
	clk := clock.NewFixed(d(today).At(9, 0, bogota))
	store, err := filestore.Open(filepath.Join(t.TempDir(), "state.json"), state.Options{
		LockTimeout: 5 * time.Second,
		Location:    bogota,
		Now:         clk.Now,
	})
	require.NoError(t, err)

	require.NoError(t, store.WithExclusiveAccess(context.Background(), func(cur *state.State) (*state.State, error) {
		cur.PutEmployee(employee.Employee{ID: "ana", FullName: "Ana", Role: employee.RoleCollaborator})
		cur.PutEmployee(employee.Employee{ID: "luis", FullName: "Luis", Role: employee.RoleManager})
		cur.PutEmployee(employee.Employee{ID: "gone", FullName: "Gone", Role: employee.RoleCollaborator, Blocked: true})
		return cur, nil
	}))

	svc := NewSchedulerService(store, clk, bogota, Config{
		Epoch:   d("2024-01-01"),
		Catalog: shift.DefaultCatalog(),
		Rules:   shift.DefaultRules(),
	})
	return &fixture{svc: svc, store: store, clock: clk}
}

func self(id string) audit.Actor { return audit.Actor{ID: id, Origin: "test"} }

func (f *fixture) audit(t *testing.T) []audit.Entry {
	t.Helper()
	snap, err := f.store.Snapshot(context.Background())
	require.NoError(t, err)
	return snap.Audit
}

func TestAutoAssignWeek_RotationTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2023-12-01")
	patterns := map[string][]string{
		"ana":  {"06:00", "14:00"},
		"luis": {"07:00", "12:00", "17:00"},
	}

	var buf bytes.Buffer
	week := d("2023-12-18")
	for i := 0; i < 8; i++ {
		// a mid-week date must land on the same Monday
		midweek := week.AddDays(2)
		ana, err := f.svc.AutoAssignWeek(ctx, admin, "ana", patterns["ana"], midweek)
		require.NoError(t, err)
		luis, err := f.svc.AutoAssignWeek(ctx, admin, "luis", patterns["luis"], midweek)
		require.NoError(t, err)

		assert.Equal(t, week, ana.WeekStart)
		assert.Len(t, ana.Created, 6)
		assert.Len(t, luis.Created, 6)
		assert.Equal(t, ana.WeekIndex, luis.WeekIndex)

		fmt.Fprintf(&buf, "%s week=%d ana=%s luis=%s\n", week, ana.WeekIndex, ana.SlotTime, luis.SlotTime)
		week = week.AddDays(7)
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "rotation_table", buf.Bytes())
}

func TestAutoAssignWeek_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2025-04-16")

	first, err := f.svc.AutoAssignWeek(ctx, admin, "ana", []string{"10:00"}, d("2025-04-21"))
	require.NoError(t, err)
	require.Len(t, first.Created, 6)
	assert.Equal(t, d("2025-04-26"), first.Created[5].Date)
	entries := len(f.audit(t))

	second, err := f.svc.AutoAssignWeek(ctx, admin, "ana", []string{"10:00"}, d("2025-04-21"))
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	assert.Empty(t, second.Skipped)
	assert.Len(t, f.audit(t), entries)

	all, err := f.svc.GetAssignments(ctx, shift.Filter{EmployeeID: "ana"})
	require.NoError(t, err)
	assert.Len(t, all, 6)
	for _, a := range all {
		assert.NotEqual(t, time.Sunday, a.Date.Weekday())
		assert.Equal(t, shift.SourceRotation, a.Source)
	}
}

func TestAutoAssignWeek_SkipsOccupiedDates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2025-04-16")

	_, err := f.svc.SelectShift(ctx, self("luis"), "luis", "10:00", d("2025-04-22"))
	require.NoError(t, err)

	res, err := f.svc.AutoAssignWeek(ctx, admin, "ana", []string{"10:00"}, d("2025-04-21"))
	require.NoError(t, err)
	assert.Len(t, res.Created, 5)
	assert.Equal(t, []calendar.Date{d("2025-04-22")}, res.Skipped)

	entries := f.audit(t)
	assert.Contains(t, entries[len(entries)-1].Detail, "skipped: 2025-04-22")
}

func TestAutoAssignWeek_SkipsDaysEmployeeAlreadyWorks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2025-04-02")

	_, err := f.svc.SelectShift(ctx, self("ana"), "ana", "10:00", d("2025-04-08"))
	require.NoError(t, err)

	res, err := f.svc.AutoAssignWeek(ctx, admin, "ana", []string{"14:00"}, d("2025-04-07"))
	require.NoError(t, err)
	assert.Len(t, res.Created, 5)
	assert.Equal(t, []calendar.Date{d("2025-04-08")}, res.Skipped)

	// a changed pattern must not stack a second rotation shift on the same days
	again, err := f.svc.AutoAssignWeek(ctx, admin, "ana", []string{"16:00"}, d("2025-04-07"))
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.Len(t, again.Skipped, 6)

	for i := 0; i < 6; i++ {
		date := d("2025-04-07").AddDays(i)
		held, err := f.svc.GetAssignments(ctx, shift.Filter{EmployeeID: "ana", From: date, To: date})
		require.NoError(t, err)
		assert.Len(t, held, 1, "ana on %s", date)
	}
}

func TestAutoAssignWeek_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2025-04-16")

	_, err := f.svc.AutoAssignWeek(ctx, self("ana"), "ana", []string{"10:00"}, d("2025-04-21"))
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	_, err = f.svc.AutoAssignWeek(ctx, admin, "ana", []string{"10:15"}, d("2025-04-21"))
	assert.ErrorIs(t, err, shift.ErrUnknownSlot)

	_, err = f.svc.AutoAssignWeek(ctx, admin, "ana", nil, d("2025-04-21"))
	assert.ErrorIs(t, err, shift.ErrPatternNotFound)

	_, err = f.svc.AutoAssignWeek(ctx, admin, "gone", []string{"10:00"}, d("2025-04-21"))
	assert.ErrorIs(t, err, employee.ErrEmployeeBlocked)
}

func TestSelectShift_MonthlyQuota(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2025-04-16")

	for _, day := range []string{"2025-04-17", "2025-04-18", "2025-04-19", "2025-04-21"} {
		_, err := f.svc.SelectShift(ctx, self("ana"), "ana", "10:00", d(day))
		require.NoError(t, err, day)
	}

	_, err := f.svc.SelectShift(ctx, self("ana"), "ana", "10:00", d("2025-04-22"))
	assert.ErrorIs(t, err, shift.ErrMonthlyQuotaExceeded)

	_, err = f.svc.SelectShift(ctx, self("ana"), "ana", "10:00", d("2025-05-02"))
	assert.NoError(t, err)

	// admins are not bound by the quota
	_, err = f.svc.AdminAssignShift(ctx, admin, "ana", d("2025-04-23"), ptr("10:00"), "cover")
	assert.NoError(t, err)
}

func TestSelectShift_RoleRestriction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2025-04-16")

	_, err := f.svc.SelectShift(ctx, self("ana"), "ana", "06:30", d("2025-04-17"))
	assert.ErrorIs(t, err, shift.ErrRoleRestrictedSlot)

	_, err = f.svc.SelectShift(ctx, self("ana"), "ana", "08:00", d("2025-04-18"))
	assert.ErrorIs(t, err, shift.ErrRoleRestrictedSlot)

	_, err = f.svc.SelectShift(ctx, self("ana"), "ana", "06:30", d("2025-04-19"))
	assert.NoError(t, err, "saturday is open to collaborators")

	_, err = f.svc.SelectShift(ctx, self("luis"), "luis", "06:30", d("2025-04-17"))
	assert.NoError(t, err)
}

func TestSelectShift_Conflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2025-04-16")

	a, err := f.svc.SelectShift(ctx, self("ana"), "ana", "11:00", d("2025-04-17"))
	require.NoError(t, err)
	assert.Equal(t, shift.SourceSelf, a.Source)
	assert.Equal(t, "ana", a.CreatedBy)

	_, err = f.svc.SelectShift(ctx, self("ana"), "ana", "11:00", d("2025-04-17"))
	assert.ErrorIs(t, err, shift.ErrDuplicateShift)

	_, err = f.svc.SelectShift(ctx, self("luis"), "luis", "11:00", d("2025-04-17"))
	assert.ErrorIs(t, err, shift.ErrShiftOccupied)

	_, err = f.svc.SelectShift(ctx, self("luis"), "ana", "12:00", d("2025-04-17"))
	assert.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestSelectShift_CheckOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2025-04-16")

	_, err := f.svc.SelectShift(ctx, admin, "nobody", "10:15", d("2025-04-01"))
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = f.svc.SelectShift(ctx, self("ana"), "ana", "10:15", d("2025-04-01"))
	assert.ErrorIs(t, err, shift.ErrUnknownSlot)

	_, err = f.svc.SelectShift(ctx, self("ana"), "ana", "06:30", d("2025-04-15"))
	assert.ErrorIs(t, err, shift.ErrPastDateMutation)

	_, err = f.svc.SelectShift(ctx, admin, "gone", "10:00", d("2025-04-17"))
	assert.ErrorIs(t, err, employee.ErrEmployeeBlocked)

	_, err = f.svc.SelectShift(ctx, self("ana"), "ana", "10:00", d("2025-04-16"))
	assert.NoError(t, err, "today is not in the past")
}

func TestReleaseShift(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2025-04-16")

	_, err := f.svc.SelectShift(ctx, self("ana"), "ana", "11:00", d("2025-04-17"))
	require.NoError(t, err)

	err = f.svc.ReleaseShift(ctx, self("luis"), "ana", "11:00", d("2025-04-17"))
	assert.ErrorIs(t, err, shift.ErrNotAssignmentOwner)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	require.NoError(t, f.svc.ReleaseShift(ctx, self("ana"), "ana", "11:00", d("2025-04-17")))
	entries := f.audit(t)
	last := entries[len(entries)-1]
	assert.Equal(t, audit.ActionShiftRelease, last.Action)
	assert.Contains(t, last.Detail, "was [2025-04-17 11:00 (self)]")

	// the slot is free again
	_, err = f.svc.SelectShift(ctx, self("luis"), "luis", "11:00", d("2025-04-17"))
	assert.NoError(t, err)

	err = f.svc.ReleaseShift(ctx, self("ana"), "ana", "11:00", d("2025-04-17"))
	assert.ErrorIs(t, err, shift.ErrAssignmentNotFound)
}

func TestAdminAssignShift_ReplaceAndRemove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2025-04-16")
	date := d("2025-04-20")

	_, err := f.svc.AdminAssignShift(ctx, admin, "ana", date, ptr("09:00"), "")
	require.NoError(t, err)

	got, err := f.svc.AdminAssignShift(ctx, admin, "ana", date, ptr("12:00"), "swap")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "12:00", got[0].SlotTime)
	assert.Equal(t, shift.SourceAdmin, got[0].Source)

	entries := f.audit(t)
	assert.Contains(t, entries[len(entries)-1].Detail, "was [2025-04-20 09:00 (admin)]")

	held, err := f.svc.GetAssignments(ctx, shift.Filter{EmployeeID: "ana", From: date, To: date})
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "12:00", held[0].SlotTime)

	_, err = f.svc.AdminAssignShift(ctx, admin, "luis", date, ptr("12:00"), "")
	assert.ErrorIs(t, err, shift.ErrShiftOccupied)

	removed, err := f.svc.AdminAssignShift(ctx, admin, "ana", date, nil, "day off")
	require.NoError(t, err)
	require.Len(t, removed, 1)
	entries = f.audit(t)
	last := entries[len(entries)-1]
	assert.Equal(t, audit.ActionShiftAdminRemove, last.Action)
	assert.Contains(t, last.Detail, "2025-04-20 12:00 (admin)")

	_, err = f.svc.AdminAssignShift(ctx, admin, "ana", date, nil, "")
	assert.ErrorIs(t, err, shift.ErrAssignmentNotFound)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)

	_, err = f.svc.AdminAssignShift(ctx, self("ana"), "ana", date, ptr("12:00"), "")
	assert.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestAdminAssignShift_PastDates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2025-04-16")
	past := d("2025-04-14")

	// setting a past shift is an audited override
	_, err := f.svc.AdminAssignShift(ctx, admin, "ana", past, ptr("09:00"), "backfill")
	require.NoError(t, err)

	_, err = f.svc.AdminAssignShift(ctx, admin, "ana", past, nil, "")
	assert.ErrorIs(t, err, shift.ErrPastDateMutation)

	err = f.svc.ReleaseShift(ctx, admin, "ana", "09:00", past)
	assert.ErrorIs(t, err, shift.ErrPastDateMutation)

	held, err := f.svc.GetAssignments(ctx, shift.Filter{From: past, To: past})
	require.NoError(t, err)
	assert.Len(t, held, 1)
}

func TestSetRotationPatternAndRunWeeklyRotation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2025-04-16")

	_, err := f.svc.SetRotationPattern(ctx, admin, "ana", nil)
	assert.ErrorIs(t, err, shift.ErrEmptyPattern)
	_, err = f.svc.SetRotationPattern(ctx, admin, "ana", []string{"23:00"})
	assert.ErrorIs(t, err, shift.ErrUnknownSlot)
	_, err = f.svc.SetRotationPattern(ctx, self("ana"), "ana", []string{"09:00"})
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	p, err := f.svc.SetRotationPattern(ctx, admin, "ana", []string{"09:00", "15:00"})
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "15:00"}, p.Slots)
	_, err = f.svc.SetRotationPattern(ctx, admin, "luis", []string{"07:00"})
	require.NoError(t, err)
	_, err = f.svc.SetRotationPattern(ctx, admin, "gone", []string{"07:00"})
	require.NoError(t, err)

	patterns, err := f.svc.RotationPatterns(ctx)
	require.NoError(t, err)
	assert.Len(t, patterns, 3)

	results, err := f.svc.RunWeeklyRotation(ctx, audit.System("cron"), d("2025-04-21"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Len(t, r.Created, 6, r.EmployeeID)
	}

	gone, err := f.svc.GetAssignments(ctx, shift.Filter{EmployeeID: "gone"})
	require.NoError(t, err)
	assert.Empty(t, gone)

	again, err := f.svc.RunWeeklyRotation(ctx, audit.System("cron"), d("2025-04-21"))
	require.NoError(t, err)
	for _, r := range again {
		assert.Empty(t, r.Created)
	}
}

func ptr(s string) *string { return &s }
