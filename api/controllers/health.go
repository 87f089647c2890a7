package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/feirinha/feirinha-backend/api/responses"
	"github.com/feirinha/feirinha-backend/pkg/config"
	"github.com/feirinha/feirinha-backend/pkg/logger"
	"github.com/feirinha/feirinha-backend/pkg/types"
)

const readinessTimeout = 2 * time.Second

// Pinger is any dependency that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck names one dependency probed by /health/ready.
type ReadinessCheck struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Feirinha-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and answers 503 if any is down.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Feirinha-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := map[string]string{}
		healthy := true
		for _, check := range checks {
			if check.Pinger == nil {
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				healthy = false
				status[check.Name] = "down"
				if logg != nil {
					logg.WarnErr(logg.WithField(ctx, "dependency", check.Name), "health.ready.dependency_down", err)
				}
				continue
			}
			status[check.Name] = "up"
		}

		if !healthy {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, types.ReadinessReport{Status: "unavailable", Checks: status})
			return
		}
		responses.WriteSuccess(w, types.ReadinessReport{Status: "ready", Checks: status})
	}
}
