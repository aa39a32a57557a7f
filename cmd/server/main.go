package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fisioflow/mentorship-api/internal/adapter/anonymizer"
	"github.com/fisioflow/mentorship-api/internal/adapter/api"
	"github.com/fisioflow/mentorship-api/internal/adapter/metrics"
	"github.com/fisioflow/mentorship-api/internal/adapter/repository/postgres"
	redisrepo "github.com/fisioflow/mentorship-api/internal/adapter/repository/redis"
	"github.com/fisioflow/mentorship-api/internal/pkg/config"
	"github.com/fisioflow/mentorship-api/internal/pkg/logger"
	"github.com/fisioflow/mentorship-api/internal/usecase"

	_ "github.com/lib/pq" // Keep for postgres driver
)

const usageEventGroup = "usage-archivers"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewGateMetrics()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database and Redis Connections ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// The rate limiter fails open and the event buffer drops, so the API
		// stays usable without Redis. Quota enforcement still works.
		logger.Warn("could not connect to redis, rate limiting degraded", "error", err)
	}

	// --- Initialize Repositories ---
	accountRepo := postgres.NewAccountRepository(db, logger, cfg.AccountCacheTTL, m)
	usageRepo := postgres.NewUsageRepository(db)
	counterStore := redisrepo.NewCounterStore(redisClient)
	eventBuffer, err := redisrepo.NewUsageEventBuffer(redisClient, logger, usageEventGroup, cfg.UsageStreamMaxLen)
	if err != nil {
		logger.Error("failed to initialize usage event buffer", "error", err)
		os.Exit(1)
	}

	// --- Initialize Use Cases ---
	catalog, err := usecase.NewCatalog(cfg.TierLimits(), config.Pricing())
	if err != nil {
		logger.Error("invalid tier catalog", "error", err)
		os.Exit(1)
	}
	meter := usecase.NewUsageMeter(accountRepo, usageRepo)
	entitlements := usecase.NewEntitlements(catalog, accountRepo, usageRepo, meter, logger)
	rateLimiter := usecase.NewRateLimiter(counterStore, cfg.RateLimits(), logger)
	anon := anonymizer.New(cfg.AnonymizeUsageEvents, cfg.AnonymizationSalt)
	recorder := usecase.NewRecordUsageUseCase(eventBuffer, anon, logger)

	// --- Start Admin and Metrics Server ---
	adminServer := &http.Server{
		Addr:    cfg.AdminServerAddr,
		Handler: api.NewAdminRouter(catalog),
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Initialize API Server ---
	router := api.NewRouter(cfg, logger, accountRepo, catalog, entitlements, rateLimiter, recorder, m)
	apiServer := &http.Server{
		Addr:         cfg.APIServerAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("starting api server", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
