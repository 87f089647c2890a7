package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/feirinha/feirinha-backend/internal/cron"
	"github.com/feirinha/feirinha-backend/internal/media"
	"github.com/feirinha/feirinha-backend/internal/notifications"
	"github.com/feirinha/feirinha-backend/internal/photos"
	"github.com/feirinha/feirinha-backend/pkg/config"
	"github.com/feirinha/feirinha-backend/pkg/db"
	"github.com/feirinha/feirinha-backend/pkg/lock"
	"github.com/feirinha/feirinha-backend/pkg/logger"
	"github.com/feirinha/feirinha-backend/pkg/metrics"
	"github.com/feirinha/feirinha-backend/pkg/migrate"
	"github.com/feirinha/feirinha-backend/pkg/redis"
	"github.com/feirinha/feirinha-backend/pkg/storage"
	"github.com/feirinha/feirinha-backend/pkg/storage/s3"
)

const serviceName = "cron-worker"

func main() {
	once := flag.Bool("once", false, "run every job a single time and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	s3Client, err := s3.New(ctx, cfg.Storage, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap object store", err)
		os.Exit(1)
	}
	store := storage.Instrument(
		storage.WithRetry(s3Client, storage.RetryOptions{
			Attempts:  cfg.Storage.RetryAttempts,
			BaseDelay: cfg.Storage.RetryBaseDelay,
		}),
		metrics.NewStoreMetrics(prometheus.DefaultRegisterer),
	)

	cycleLock, err := lock.NewRedisLock(redisClient, redisClient.LockKey("cron", cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(ctx, "failed to create cron lock", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	sweepJob, err := cron.NewOrphanedBlobSweepJob(cron.OrphanedBlobSweepJobParams{
		Logger:      logg,
		Orphans:     media.NewOrphanRepository(gormDB),
		Photos:      photos.NewRepository(gormDB),
		Store:       store,
		BatchSize:   cfg.Cron.OrphanBatchSize,
		MaxAttempts: cfg.Cron.OrphanMaxAttempts,
	})
	if err != nil {
		logg.Error(ctx, "failed to create orphaned blob sweep job", err)
		os.Exit(1)
	}

	cleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: notifications.NewRepository(gormDB),
		Retention:  cfg.Cron.NotificationRetentionDays,
	})
	if err != nil {
		logg.Error(ctx, "failed to create notification cleanup job", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(sweepJob, cleanupJob)
	if err != nil {
		logg.Error(ctx, "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     cycleLock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if *once {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron run failed", err)
			os.Exit(1)
		}
		return
	}

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
