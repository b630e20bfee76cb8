package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	Env            string
	Version        string
	AllowedOrigins []string
	LogLevel       slog.Level
}

type Handlers struct {
	Attendance AttendanceHandler
	Shift      ShiftHandler
	Employee   EmployeeHandler
	Audit      AuditHandler
	Report     ReportHandler
	Backup     BackupHandler
}

func NewRouter(cfg RouterConfig, jwtService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "shiftclock"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RealIP)

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// The audit stream takes its token from the query string.
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(jwtService.JWTAuth(), jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(middleware.AuthRequired(jwt.TokenTypeAccess, jwt.TokenTypeSSE))
			r.Use(middleware.AdminOnly)
			r.Get("/admin/audit/stream", h.Audit.Stream)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwt.TokenTypeAccess))

			r.Get("/me", h.Employee.Me)

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/", h.Attendance.List)
				r.Post("/clock-in", h.Attendance.ClockIn)
				r.Post("/clock-out", h.Attendance.ClockOut)
				r.Post("/toggle", h.Attendance.Toggle)
			})

			r.Route("/shifts", func(r chi.Router) {
				r.Get("/", h.Shift.List)
				r.Get("/catalog", h.Shift.Catalog)
				r.Post("/select", h.Shift.Select)
				r.Post("/release", h.Shift.Release)
			})

			r.Get("/reports/summary", h.Report.Summary)

			// Admin only
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.AdminOnly)

				r.Route("/employees", func(r chi.Router) {
					r.Get("/", h.Employee.List)
					r.Post("/", h.Employee.Register)
					r.Route("/{employeeID}", func(r chi.Router) {
						r.Get("/", h.Employee.Get)
						r.Put("/", h.Employee.Update)
						r.Post("/block", h.Employee.Block)
						r.Post("/unblock", h.Employee.Unblock)
					})
				})

				r.Route("/attendance/{employeeID}/{date}", func(r chi.Router) {
					r.Put("/", h.Attendance.Correct)
					r.Delete("/", h.Attendance.Delete)
				})

				r.Route("/shifts", func(r chi.Router) {
					r.Post("/auto-assign", h.Shift.AutoAssign)
					r.Put("/{employeeID}/{date}", h.Shift.AdminAssign)
				})

				r.Route("/rotations", func(r chi.Router) {
					r.Get("/", h.Shift.ListPatterns)
					r.Post("/run", h.Shift.RunRotation)
					r.Put("/{employeeID}", h.Shift.SetPattern)
				})

				r.Route("/audit", func(r chi.Router) {
					r.Get("/", h.Audit.List)
					r.Post("/", h.Audit.Append)
					r.Post("/stream-token", h.Audit.StreamToken)
				})
				r.Get("/ledger/{month}/{day}", h.Audit.Ledger)

				r.Route("/backups", func(r chi.Router) {
					r.Get("/", h.Backup.List)
					r.Post("/", h.Backup.Run)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	return r
}
