package controllers

import (
	"net/http"

	"github.com/coaltrack/coaltrack-backend/api/responses"
	"github.com/coaltrack/coaltrack-backend/pkg/config"
	"github.com/coaltrack/coaltrack-backend/pkg/db"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
	"github.com/coaltrack/coaltrack-backend/pkg/logger"
	pkgredis "github.com/coaltrack/coaltrack-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CoalTrack-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when the database and cache answer pings.
func HealthReady(cfg *config.Config, database db.Pinger, cache pkgredis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CoalTrack-Env", cfg.App.Env)

		checks := map[string]string{"db": "ok", "redis": "ok"}
		var failed error

		if database == nil {
			checks["db"] = "unconfigured"
		} else if err := database.Ping(r.Context()); err != nil {
			checks["db"] = "down"
			failed = err
		}

		if cache == nil {
			checks["redis"] = "unconfigured"
		} else if err := cache.Ping(r.Context()); err != nil {
			checks["redis"] = "down"
			if failed == nil {
				failed = err
			}
		}

		if failed != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, failed, "dependency check failed").WithDetails(map[string]any{"checks": checks}))
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
