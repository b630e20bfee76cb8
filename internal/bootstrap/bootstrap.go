// Package bootstrap assembles the store and services shared by the API and shiftctl.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/config"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/attendance"
	auditDomain "github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	backupDomain "github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/backup"
	employeeDomain "github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	reportDomain "github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/repository/filestore"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/repository/sqlite"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/service/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/service/backup"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/service/employee"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/service/report"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/service/rotation"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/service/timeclock"
)

type App struct {
	Config *config.Config
	Clock  clock.Clock
	Store  state.Store
	Hub    *sse.Hub

	TimeClock attendance.TimeClockService
	Scheduler shift.SchedulerService
	Audit     auditDomain.Service
	Employees employeeDomain.EmployeeService
	Reports   reportDomain.ReportService
	Backups   backupDomain.Service
}

// New opens the configured store and builds every service on top of it.
func New(ctx context.Context, cfg *config.Config, clk clock.Clock) (*App, error) {
	if clk == nil {
		clk = clock.System()
	}
	loc := cfg.App.Timezone
	if loc == nil {
		loc = time.UTC
	}

	store, err := OpenStore(ctx, cfg, state.Options{
		LockTimeout: cfg.Store.LockTimeout,
		Location:    loc,
		Now:         clk.Now,
	})
	if err != nil {
		return nil, err
	}

	catalog, err := shift.NewCatalog(cfg.Shift.SlotStart, cfg.Shift.SlotEnd, cfg.Shift.SlotStep)
	if err != nil {
		store.Close()
		return nil, err
	}
	rules := shift.DefaultRules()
	rules.ManagerOnlyTimes = cfg.Shift.ManagerOnlySlots
	rules.MonthlyQuota = cfg.Shift.MonthlyQuota

	epoch := cfg.Shift.Epoch
	if cfg.Shift.RotationFile != "" {
		rf, err := config.LoadRotationFile(cfg.Shift.RotationFile)
		if err != nil {
			store.Close()
			return nil, err
		}
		epoch = rf.EpochOr(epoch)
	}

	files, err := storage.NewLocalStorage(cfg.Backup.Dir)
	if err != nil {
		store.Close()
		return nil, err
	}

	hub := sse.NewHub()
	observed := state.WithAuditObserver(store, audit.Publisher(hub))
	policy := timeclock.DefaultPolicy()

	return &App{
		Config:    cfg,
		Clock:     clk,
		Store:     observed,
		Hub:       hub,
		TimeClock: timeclock.NewTimeClockService(observed, clk, loc, policy),
		Scheduler: rotation.NewSchedulerService(observed, clk, loc, rotation.Config{
			Epoch:   epoch,
			Catalog: catalog,
			Rules:   rules,
		}),
		Audit:     audit.NewAuditService(observed, clk, hub),
		Employees: employee.NewEmployeeService(observed, clk),
		Reports:   report.NewReportService(observed, clk, policy),
		Backups:   backup.NewBackupService(observed, files, clk, cfg.Backup.Keep),
	}, nil
}

// OpenStore returns the backend named by STORE_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config, opts state.Options) (state.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverFile:
		store, err := filestore.Open(cfg.Store.Path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreDriverSQLite:
		store, err := sqlite.Open(cfg.Store.Path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreDriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolSettings{MaxConns: cfg.Database.MaxConns})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		store, err := postgresql.NewStore(ctx, db, opts)
		if err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Jobs registers the periodic jobs on a new scheduler.
func (a *App) Jobs() (*cron.Scheduler, error) {
	s := cron.NewScheduler()
	if err := cron.NewRotationJobs(a.Scheduler, a.Clock, a.Config.App.Timezone).RegisterJobs(s); err != nil {
		return nil, err
	}
	if err := cron.NewBackupJobs(a.Backups, a.Config.Backup.Interval).RegisterJobs(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *App) Close() error {
	a.Hub.Close()
	slog.Debug("Closing store", "driver", a.Config.Store.Driver, "path", filepath.Clean(a.Config.Store.Path))
	return a.Store.Close()
}
