package cmd

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

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/training-records/internal"
	"github.com/frahmantamala/training-records/internal/auth"
	"github.com/frahmantamala/training-records/internal/core/events"
	"github.com/frahmantamala/training-records/internal/report"
	"github.com/frahmantamala/training-records/internal/training"
	"github.com/frahmantamala/training-records/internal/transport/middleware"
	"github.com/frahmantamala/training-records/internal/transport/rest"
	"github.com/frahmantamala/training-records/internal/user"
	"github.com/frahmantamala/training-records/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	Stores *stores
	Router *chi.Mux
	Events *events.Bus
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "driver", deps.Config.Database.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			_ = deps.Stores.Close()
			os.Exit(1)
		}
	}

	deps.Events.Wait()
	if err := deps.Stores.Close(); err != nil {
		deps.Logger.Error("Database close error", "error", err)
	}
	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	initLogger(config.Observability.Logging)

	st, err := openStores(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	lg := logger.LoggerWrapper()
	if config.Database.Driver == internal.DriverMemory {
		ctx, cancel := context.WithTimeout(context.Background(), internal.DefaultStoreTimeout)
		defer cancel()
		if err := seedSampleData(ctx, st, config.Security.BCryptCost); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
		lg.Warn("running on the in-memory store; data is lost on restart")
	}

	return &Dependencies{
		Config: config,
		Stores: st,
		Router: chi.NewRouter(),
		Events: events.NewBus(lg.With("component", "events")),
		Logger: lg,
	}, nil
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(deps.Stores.Credentials, tokens, lg.With("component", "auth"))
	events.SubscribeAuditLog(deps.Events, lg)
	userService := user.NewService(deps.Stores.Users, cfg.Security.BCryptCost, lg.With("component", "user")).
		WithPublisher(deps.Events)
	trainingService := training.NewService(deps.Stores.Trainings, deps.Stores.Users, lg.With("component", "training")).
		WithPublisher(deps.Events)
	reportService := report.NewService(deps.Stores.Users, deps.Stores.Trainings, report.NewXLSXFormatter(), cfg.Report.Location(), lg.With("component", "report"))

	routeDeps := rest.Dependencies{
		AuthHandler:     auth.NewHandler(authService),
		UserHandler:     user.NewHandler(userService),
		TrainingHandler: training.NewHandler(trainingService),
		ReportHandler:   report.NewHandler(reportService),
		HealthChecks:    deps.Stores.Checks,
		OpenAPIFile:     cfg.Server.OpenAPIFile,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Logger:          lg,
	}

	if cfg.Observability.Metrics.Enabled {
		routeDeps.Metrics = middleware.NewMetrics(cfg.Observability.Metrics.Namespace)
		routeDeps.MetricsPath = cfg.Observability.Metrics.Path
	}

	if cfg.Server.ValidateRequests {
		doc, err := middleware.LoadOpenAPI(context.Background(), cfg.Server.OpenAPIFile)
		if err != nil {
			return err
		}
		validator, err := middleware.RequestValidator(doc, lg)
		if err != nil {
			return err
		}
		routeDeps.RequestValidator = validator
	}

	rest.RegisterAllRoutes(deps.Router, routeDeps)
	return nil
}
