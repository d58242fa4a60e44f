package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hireportal/internal/backend"
	"github.com/hireportal/internal/config"
	"github.com/hireportal/internal/db"
	"github.com/hireportal/internal/drafts"
	httpserver "github.com/hireportal/internal/http"
	"github.com/hireportal/internal/jobs"
	"github.com/hireportal/internal/logger"
	"github.com/hireportal/internal/ratelimit"
	"github.com/hireportal/internal/routes"
	"github.com/hireportal/internal/service"
	"github.com/hireportal/internal/system"
	"github.com/hireportal/internal/upload"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger with configuration
	appLogger := logger.InitLogger(cfg.Environment, cfg.LogJSON)

	appLogger.Info("portal configuration loaded",
		"environment", cfg.Environment,
		"listen_address", cfg.ServerAddress,
		"backend_url", cfg.Backend.BaseURL,
		"backend_source", cfg.Backend.Source,
	)
	if len(cfg.Backend.Conflicts) > 0 {
		appLogger.Warn("backend URL variables disagree, using the first set",
			"used", cfg.Backend.Source,
			"ignored", cfg.Backend.Conflicts,
		)
	}

	database, err := db.Init(cfg.DatabasePath)
	if err != nil {
		appLogger.Error("failed to initialize database", "error", err, "path", cfg.DatabasePath)
		os.Exit(1)
	}
	defer database.Close()

	if cfg.SeedDemoData {
		if err := database.SeedDemoCompanies(context.Background()); err != nil {
			appLogger.Warn("failed to seed demo companies", "error", err)
		}
	}

	table, err := loadRoutes(cfg)
	if err != nil {
		appLogger.Error("failed to load route table", "error", err, "file", cfg.RoutesFile)
		os.Exit(1)
	}
	appLogger.Info("route table loaded", "routes", len(table.Routes))

	backendClient, err := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, cfg.Backend.RefreshPath, appLogger)
	if err != nil {
		appLogger.Error("failed to create backend client", "error", err)
		os.Exit(1)
	}

	draftStore, closeDrafts, err := openDraftStore(cfg, database)
	if err != nil {
		appLogger.Error("failed to open draft store", "error", err)
		os.Exit(1)
	}
	defer closeDrafts()
	appLogger.Info("draft store ready", "store", draftStore.Name(), "ttl", cfg.DraftTTL)

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	scheduler := jobs.NewScheduler(appLogger)
	tasks := []jobs.Task{jobs.PurgeDrafts(draftStore, appLogger)}
	if limiter != nil {
		tasks = append(tasks, jobs.SweepRateLimiter(limiter, 10*time.Minute, appLogger))
	}
	for _, task := range tasks {
		if err := scheduler.Add(task); err != nil {
			appLogger.Error("failed to schedule task", "task", task.Name, "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	scheduler.Start(ctx)

	server, err := httpserver.NewServer(cfg, httpserver.Deps{
		Backend:    backendClient,
		Routes:     table,
		Uploads:    upload.NewStore(cfg.Upload.Dir, cfg.Upload.MaxBytes, appLogger),
		Companies:  service.NewCompanyService(database, appLogger),
		Drafts:     service.NewDraftService(draftStore, appLogger),
		DraftStore: draftStore.Name(),
		Limiter:    limiter,
		Collector:  system.NewCollector(cfg.Upload.Dir),
		Scheduler:  scheduler,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	httpServer := server.HTTPServer()

	go func() {
		appLogger.Info("portal gateway listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down portal gateway...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown error", "error", err)
	}
	scheduler.Stop(10 * time.Second)
	stop()

	appLogger.Info("portal gateway stopped")
}

func loadRoutes(cfg *config.Config) (*routes.Table, error) {
	if cfg.RoutesFile != "" {
		return routes.LoadFile(cfg.RoutesFile)
	}
	return routes.Default()
}

// openDraftStore picks Redis when REDIS_URL is set and the sqlite table otherwise
func openDraftStore(cfg *config.Config, database *db.DB) (drafts.Store, func(), error) {
	if cfg.RedisURL == "" {
		return drafts.NewSQLiteStore(database, cfg.DraftTTL), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := drafts.NewRedisStore(ctx, cfg.RedisURL, cfg.DraftTTL)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}
