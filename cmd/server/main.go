package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/editorial-cms/internal/api"
	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/database"
	"github.com/editorial-cms/internal/events"
	"github.com/editorial-cms/internal/media"
	"github.com/editorial-cms/internal/ratelimit"
	"github.com/editorial-cms/internal/repository"
	"github.com/editorial-cms/internal/service"
	"github.com/editorial-cms/internal/session"
	"github.com/editorial-cms/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log := logger.New("info", "json")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	format := cfg.Log.Format
	if cfg.Env == "development" {
		format = "pretty"
	}
	log := logger.New(cfg.Log.Level, format)
	log.Info().Str("env", cfg.Env).Msg("Starting editorial CMS server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}
	if err := db.RunMigrations(migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Background loops stop on shutdown
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// Initialize repositories
	repos := repository.New(db)

	// Initialize infrastructure
	infra := service.Infra{
		Images: media.NewImageStore(&cfg.Media, log),
		Events: newPublisher(cfg, log),
	}
	defer infra.Events.Close()

	if cfg.Redis.URL != "" {
		rdb, err := database.NewRedis(cfg.Redis.URL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		infra.Sessions = session.NewRedisStore(rdb)
		infra.Attempts = ratelimit.NewRedisAttemptStore(rdb)
	} else {
		log.Warn().Msg("REDIS_URL not set, sessions and login throttling are kept in memory")
		attempts := ratelimit.NewMemoryAttemptStore()
		go attempts.RunCleanup(bgCtx, time.Minute)
		infra.Attempts = attempts
	}

	// Initialize services
	services := service.NewServices(repos, infra, cfg, log)

	// Initialize router
	router := api.NewRouter(bgCtx, services, cfg, db, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server exited gracefully")
}

// newPublisher connects to NATS when configured. Events are best effort, so a
// failed connection falls back to the no-op publisher.
func newPublisher(cfg *config.Config, log zerolog.Logger) events.Publisher {
	if cfg.NATS.URL == "" {
		return events.NoopPublisher{}
	}
	pub, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
	if err != nil {
		log.Error().Err(err).Str("url", cfg.NATS.URL).Msg("NATS unavailable, article events disabled")
		return events.NoopPublisher{}
	}
	return pub
}

