package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/bootstrap"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/shiftclock-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/jwt"
)

var version = "dev"

func main() {
	envFile := os.Getenv("ENV_FILE")
	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if cfg.JWT.Secret == "" {
		slog.Error("JWT_SECRET_KEY is required to serve the API")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.System()
	app, err := bootstrap.New(ctx, cfg, clk)
	if err != nil {
		slog.Error("Failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer app.Close()

	jobs, err := app.Jobs()
	if err != nil {
		slog.Error("Failed to register jobs", "error", err)
		os.Exit(1)
	}
	jobs.Start(ctx)
	defer jobs.Stop()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			Env:            cfg.App.Env,
			Version:        version,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			LogLevel:       cfg.SlogLevel(),
		},
		JWTService,
		appHTTP.Handlers{
			Attendance: appHTTP.NewAttendanceHandler(app.TimeClock, clk),
			Shift:      appHTTP.NewShiftHandler(app.Scheduler),
			Employee:   appHTTP.NewEmployeeHandler(app.Employees),
			Audit:      appHTTP.NewAuditHandler(app.Audit, app.Store, JWTService),
			Report:     appHTTP.NewReportHandler(app.Reports),
			Backup:     appHTTP.NewBackupHandler(app.Backups),
		},
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", srv.Addr, "store", cfg.Store.Driver, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("Server error", "error", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
