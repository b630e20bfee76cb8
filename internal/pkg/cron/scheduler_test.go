package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/backup"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunOnceJoinsErrors(t *testing.T) {
	s := NewScheduler()
	boom := errors.New("boom")
	var ran atomic.Int32

	require.NoError(t, s.AddJob("ok", time.Hour, func(ctx context.Context) error { ran.Add(1); return nil }))
	require.NoError(t, s.AddJob("fails", time.Hour, func(ctx context.Context) error { ran.Add(1); return boom }))
	assert.Equal(t, []string{"ok", "fails"}, s.Jobs())

	err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "fails")
	assert.Equal(t, int32(2), ran.Load())
}

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	s := NewScheduler()
	assert.Error(t, s.AddJob("bad", 0, func(ctx context.Context) error { return nil }))
	assert.Empty(t, s.Jobs())
}

func TestScheduler_StartRunsImmediatelyAndStops(t *testing.T) {
	s := NewScheduler()
	ran := make(chan struct{}, 1)
	require.NoError(t, s.AddJob("tick", time.Hour, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}))

	s.Start(context.Background())
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}
	s.Stop()
	s.Stop()
}

type fakeScheduler struct {
	shift.SchedulerService
	week  calendar.Date
	actor audit.Actor
}

func (f *fakeScheduler) RunWeeklyRotation(ctx context.Context, actor audit.Actor, weekStart calendar.Date) ([]shift.AutoAssignResult, error) {
	f.week, f.actor = weekStart, actor
	return []shift.AutoAssignResult{{EmployeeID: "ana", Created: make([]shift.Assignment, 6)}}, nil
}

func TestRotationJobs_AssignNextWeek(t *testing.T) {
	// Wednesday
	clk := clock.NewFixed(time.Date(2025, 4, 2, 23, 30, 0, 0, time.UTC))
	fake := &fakeScheduler{}
	jobs := NewRotationJobs(fake, clk, time.UTC)

	require.NoError(t, jobs.AssignNextWeek(context.Background()))
	assert.Equal(t, "2025-04-07", fake.week.String())
	assert.True(t, fake.actor.Admin)
	assert.Equal(t, "cron", fake.actor.Origin)

	s := NewScheduler()
	require.NoError(t, jobs.RegisterJobs(s))
	assert.Equal(t, []string{"assign_next_week_rotation"}, s.Jobs())
}

type fakeBackups struct {
	backup.Service
	runs int
}

func (f *fakeBackups) Run(ctx context.Context) (backup.Info, error) {
	f.runs++
	return backup.Info{Name: "state_x.json.xz"}, nil
}

func TestBackupJobs(t *testing.T) {
	fake := &fakeBackups{}
	s := NewScheduler()
	require.NoError(t, NewBackupJobs(fake, 240*time.Hour).RegisterJobs(s))
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, fake.runs)
}
