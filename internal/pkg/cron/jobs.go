package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/backup"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/clock"
)

const jobActorOrigin = "cron"

type RotationJobs struct {
	scheduler shift.SchedulerService
	clock     clock.Clock
	loc       *time.Location
}

func NewRotationJobs(scheduler shift.SchedulerService, clk clock.Clock, loc *time.Location) *RotationJobs {
	return &RotationJobs{scheduler: scheduler, clock: clk, loc: loc}
}

func (j *RotationJobs) RegisterJobs(s *Scheduler) error {
	return s.AddJob("assign_next_week_rotation", 24*time.Hour, j.AssignNextWeek)
}

// AssignNextWeek applies every stored pattern to the coming week. Re-running it is a
// no-op because auto assignment is idempotent.
func (j *RotationJobs) AssignNextWeek(ctx context.Context) error {
	week := calendar.Today(j.clock.Now(), j.loc).WeekStart().AddDays(7)
	slog.Info("Cron: assigning rotation", "week", week.String())

	results, err := j.scheduler.RunWeeklyRotation(ctx, audit.System(jobActorOrigin), week)
	created := 0
	for _, r := range results {
		created += len(r.Created)
	}
	slog.Info("Cron: rotation assigned", "week", week.String(), "employees", len(results), "created", created)
	return err
}

type BackupJobs struct {
	backups  backup.Service
	interval time.Duration
}

func NewBackupJobs(backups backup.Service, interval time.Duration) *BackupJobs {
	return &BackupJobs{backups: backups, interval: interval}
}

func (j *BackupJobs) RegisterJobs(s *Scheduler) error {
	return s.AddJob("state_backup", j.interval, j.Backup)
}

func (j *BackupJobs) Backup(ctx context.Context) error {
	info, err := j.backups.Run(ctx)
	if err != nil {
		return err
	}
	slog.Info("Cron: backup stored", "name", info.Name, "size", info.Size)
	return nil
}
