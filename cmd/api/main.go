package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feirinha/feirinha-backend/api"
	"github.com/feirinha/feirinha-backend/api/routes"
	"github.com/feirinha/feirinha-backend/internal/cities"
	"github.com/feirinha/feirinha-backend/internal/favorites"
	"github.com/feirinha/feirinha-backend/internal/items"
	"github.com/feirinha/feirinha-backend/internal/media"
	"github.com/feirinha/feirinha-backend/internal/notifications"
	"github.com/feirinha/feirinha-backend/internal/photos"
	"github.com/feirinha/feirinha-backend/internal/profiles"
	"github.com/feirinha/feirinha-backend/pkg/config"
	"github.com/feirinha/feirinha-backend/pkg/db"
	"github.com/feirinha/feirinha-backend/pkg/events"
	"github.com/feirinha/feirinha-backend/pkg/lock"
	"github.com/feirinha/feirinha-backend/pkg/logger"
	"github.com/feirinha/feirinha-backend/pkg/metrics"
	"github.com/feirinha/feirinha-backend/pkg/migrate"
	"github.com/feirinha/feirinha-backend/pkg/redis"
	"github.com/feirinha/feirinha-backend/pkg/storage"
	"github.com/feirinha/feirinha-backend/pkg/storage/s3"
)

const serviceName = "api"

func main() {
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storeMetrics := metrics.NewStoreMetrics(registry)
	photoSetMetrics := metrics.NewPhotoSetMetrics(registry)

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
		storeMetrics,
	)

	itemLocker, err := lock.NewLocker(lock.LockerParams{
		Client: redisClient,
		Scope:  "item",
		TTL:    cfg.Media.LockTTL,
		Wait:   cfg.Media.LockWait,
	})
	if err != nil {
		logg.Error(ctx, "failed to create item locker", err)
		os.Exit(1)
	}

	publisher, err := events.New(ctx, cfg.Events, serviceName, logg)
	if err != nil {
		logg.Error(ctx, "failed to connect event publisher", err)
		os.Exit(1)
	}
	defer publisher.Close()

	gormDB := dbClient.DB()
	photoRepo := photos.NewRepository(gormDB)
	cityRepo := cities.NewRepository(gormDB)
	notificationRepo := notifications.NewRepository(gormDB)

	stager, err := media.NewStager(media.StagerParams{
		Store:              store,
		Orphans:            media.NewOrphanRepository(gormDB),
		Logger:             logg,
		Metrics:            photoSetMetrics,
		Concurrency:        cfg.Media.UploadConcurrency,
		CompensationWindow: cfg.Media.CompensationWindow,
	})
	if err != nil {
		logg.Error(ctx, "failed to create photo stager", err)
		os.Exit(1)
	}

	itemsService, err := items.NewService(items.ServiceParams{
		DB:        dbClient,
		Items:     items.NewRepository(gormDB),
		Photos:    photoRepo,
		Cities:    cityRepo,
		Validator: media.NewValidator(cfg.Media.MaxPhotoBytes()),
		Stager:    stager,
		Locker:    itemLocker,
		Publisher: publisher,
		Logger:    logg,
		Metrics:   photoSetMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create items service", err)
		os.Exit(1)
	}

	favoritesService, err := favorites.NewService(favorites.ServiceParams{
		Repo:   favorites.NewRepository(gormDB),
		Photos: photoRepo,
	})
	if err != nil {
		logg.Error(ctx, "failed to create favorites service", err)
		os.Exit(1)
	}

	trigger, err := notifications.NewTrigger(notificationRepo, logg)
	if err != nil {
		logg.Error(ctx, "failed to create notification trigger", err)
		os.Exit(1)
	}

	profilesService, err := profiles.NewService(profiles.ServiceParams{
		DB:      dbClient,
		Repo:    profiles.NewRepository(gormDB),
		Cities:  cityRepo,
		Trigger: trigger,
	})
	if err != nil {
		logg.Error(ctx, "failed to create profiles service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationRepo)
	if err != nil {
		logg.Error(ctx, "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("HOSTNAME")
	if id == "" {
		id = "local"
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	handler := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		s3Client,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		itemsService,
		favoritesService,
		profilesService,
		notificationsService,
	)

	if err := api.Serve(ctx, api.NewServer(addr, handler), logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}
