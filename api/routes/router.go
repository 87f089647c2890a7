package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/feirinha/feirinha-backend/api/controllers"
	"github.com/feirinha/feirinha-backend/api/middleware"
	"github.com/feirinha/feirinha-backend/internal/favorites"
	"github.com/feirinha/feirinha-backend/internal/items"
	"github.com/feirinha/feirinha-backend/internal/notifications"
	"github.com/feirinha/feirinha-backend/internal/profiles"
	"github.com/feirinha/feirinha-backend/pkg/config"
	"github.com/feirinha/feirinha-backend/pkg/db"
	"github.com/feirinha/feirinha-backend/pkg/logger"
	"github.com/feirinha/feirinha-backend/pkg/redis"
	"github.com/feirinha/feirinha-backend/pkg/storage"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	store storage.Pinger,
	metricsHandler http.Handler,
	itemsService items.Service,
	favoritesService favorites.Service,
	profilesService profiles.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var (
		idempotencyStore redis.IdempotencyStore
		redisPinger      redis.Pinger
	)
	if redisClient != nil {
		idempotencyStore = redisClient
		redisPinger = redisClient
	}

	ratePolicy := middleware.RateLimitPolicy{}
	if cfg.RateLimit.Enabled {
		ratePolicy = middleware.RateLimitPolicy{RPS: cfg.RateLimit.RPS, Burst: cfg.RateLimit.Burst}
	}
	limits := controllers.UploadLimits{
		MaxMemory:    cfg.Media.MultipartMemoryBytes(),
		MaxFileBytes: cfg.Media.MaxPhotoBytes(),
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg,
			controllers.ReadinessCheck{Name: "db", Pinger: dbP},
			controllers.ReadinessCheck{Name: "redis", Pinger: redisPinger},
			controllers.ReadinessCheck{Name: "object_store", Pinger: store},
		))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public reads; a token, when present, identifies the viewer.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.RateLimit(ratePolicy, logg))

			r.Get("/items/{itemId}", controllers.GetItem(itemsService, logg))
			r.Get("/favorites/{itemId}/check", controllers.CheckFavorite(favoritesService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RateLimit(ratePolicy, logg))
			r.Use(middleware.Idempotency(idempotencyStore, logg))

			r.Post("/items", controllers.CreateItem(itemsService, limits, logg))
			r.Put("/items/{itemId}", controllers.UpdateItem(itemsService, limits, logg))
			r.Delete("/items/{itemId}", controllers.DeleteItem(itemsService, logg))
			r.Get("/items/{itemId}/images", controllers.ListItemPhotos(itemsService, logg))
			r.Post("/items/{itemId}/images", controllers.AppendItemPhotos(itemsService, limits, logg))
			r.Delete("/items/{itemId}/images/{photoId}", controllers.DeleteItemPhoto(itemsService, logg))

			r.Get("/favorites", controllers.ListFavorites(favoritesService, logg))
			r.Post("/favorites", controllers.AddFavorite(favoritesService, logg))
			r.Delete("/favorites/{itemId}", controllers.RemoveFavorite(favoritesService, logg))

			r.Get("/profiles/me", controllers.GetMyProfile(profilesService, logg))
			r.Patch("/profiles/me", controllers.UpdateMyProfile(profilesService, logg))

			r.Get("/notifications", controllers.ListNotifications(notificationsService, logg))
			r.Post("/notifications/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/notifications/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
