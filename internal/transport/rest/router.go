package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/training-records/internal/auth"
	"github.com/frahmantamala/training-records/internal/report"
	"github.com/frahmantamala/training-records/internal/training"
	"github.com/frahmantamala/training-records/internal/transport"
	"github.com/frahmantamala/training-records/internal/transport/middleware"
	"github.com/frahmantamala/training-records/internal/transport/swagger"
	"github.com/frahmantamala/training-records/internal/user"
)

// Dependencies is everything the router mounts. Optional pieces may be nil.
type Dependencies struct {
	AuthHandler     *auth.Handler
	UserHandler     *user.Handler
	TrainingHandler *training.Handler
	ReportHandler   *report.Handler
	HealthChecks    map[string]Check

	Metrics          *middleware.Metrics
	MetricsPath      string
	RequestValidator func(http.Handler) http.Handler
	OpenAPIFile      string
	AllowedOrigins   string

	Logger *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	base := transport.NewBaseHandler(logger)
	healthHandler := NewHealthHandler(base, deps.HealthChecks)
	rbac := auth.NewRBACAuthorization(logger)

	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware)
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Method(http.MethodGet, path, deps.Metrics.Handler())
	}

	if deps.OpenAPIFile != "" {
		router.Get("/openapi.yml", swagger.SpecHandler(deps.OpenAPIFile))
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}

	router.Route("/api/v1", func(r chi.Router) {
		if deps.RequestValidator != nil {
			r.Use(deps.RequestValidator)
		}

		r.Get("/health", healthHandler.Health)
		r.Get("/ping", healthHandler.Ping)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", deps.AuthHandler.Login)
			sr.Post("/refresh", deps.AuthHandler.RefreshToken)
			sr.Post("/logout", deps.AuthHandler.Logout)
			sr.Post("/register", deps.UserHandler.Register)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(deps.AuthHandler.AuthMiddleware)

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/me", deps.UserHandler.GetCurrentUser)

				ur.Group(func(ar chi.Router) {
					ar.Use(rbac.RequireAdmin())
					ar.Get("/", deps.UserHandler.ListUsers)
					ar.Post("/", deps.UserHandler.CreateUser)
					ar.Get("/{id}", deps.UserHandler.GetUser)
					ar.Put("/{id}", deps.UserHandler.UpdateUser)
					ar.Delete("/{id}", deps.UserHandler.DeleteUser)
				})
			})

			pr.Route("/trainings", func(tr chi.Router) {
				tr.Get("/", deps.TrainingHandler.ListRecords)
				tr.Post("/", deps.TrainingHandler.CreateRecord)
				tr.Get("/{id}", deps.TrainingHandler.GetRecord)
				tr.Put("/{id}", deps.TrainingHandler.UpdateRecord)
				tr.Delete("/{id}", deps.TrainingHandler.DeleteRecord)
			})

			pr.Route("/reports", func(rr chi.Router) {
				rr.Get("/me", deps.ReportHandler.GetMyProgress)
				rr.Get("/trainings/export", deps.ReportHandler.ExportTrainings)

				rr.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireMonitor())
					mr.Get("/statistics", deps.ReportHandler.GetStatistics)
					mr.Get("/statistics/export", deps.ReportHandler.ExportStatistics)
				})

				rr.Group(func(ar chi.Router) {
					ar.Use(rbac.RequireAdmin())
					ar.Get("/users/export", deps.ReportHandler.ExportUsers)
				})
			})
		})
	})
}
