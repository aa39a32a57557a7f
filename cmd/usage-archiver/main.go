package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/fisioflow/mentorship-api/internal/adapter/repository/postgres"
	redisrepo "github.com/fisioflow/mentorship-api/internal/adapter/repository/redis"
	"github.com/fisioflow/mentorship-api/internal/pkg/config"
	"github.com/fisioflow/mentorship-api/internal/pkg/logger"
	"github.com/fisioflow/mentorship-api/internal/usecase"
)

const (
	consumerGroup      = "usage-archivers"
	processingInterval = 1 * time.Second
	pruneInterval      = 1 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("starting usage archiver worker")

	// Create a context that we can cancel on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stopChan
		log.Info("shutdown signal received, stopping archiver...")
		cancel()
	}()

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to redis")

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	log.Info("connected to postgres")

	// Create a unique consumer name for this instance
	consumerName, err := os.Hostname()
	if err != nil {
		log.Warn("could not get hostname for consumer name, using default", "error", err)
		consumerName = "archiver-default"
	}

	// Instantiate repositories
	eventBuffer, err := redisrepo.NewUsageEventBuffer(redisClient, log, consumerGroup, cfg.UsageStreamMaxLen)
	if err != nil {
		log.Error("failed to create usage event buffer", "error", err)
		os.Exit(1)
	}
	eventSink := postgres.NewUsageEventSink(db, log)

	// Instantiate the use case
	archiveUseCase := usecase.NewArchiveUsageUseCase(eventBuffer, eventSink, log, consumerGroup, consumerName)

	// Start the archiving loop
	ticker := time.NewTicker(processingInterval)
	defer ticker.Stop()
	pruneTicker := time.NewTicker(pruneInterval)
	defer pruneTicker.Stop()

	log.Info("usage archiver started", "group", consumerGroup, "consumer", consumerName, "retention", cfg.UsageEventRetention)

Loop:
	for {
		select {
		case <-ticker.C:
			if _, err := archiveUseCase.ProcessBatch(ctx); err != nil {
				log.Error("error processing batch", "error", err)
			}
		case <-pruneTicker.C:
			if _, err := archiveUseCase.PruneExpired(ctx, cfg.UsageEventRetention); err != nil {
				log.Error("error pruning expired events", "error", err)
			}
		case <-ctx.Done():
			log.Info("context cancelled, shutting down archiver loop")
			break Loop
		}
	}

	log.Info("usage archiver shut down gracefully")
}
