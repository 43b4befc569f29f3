package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// HealthCheck handles GET /health
func HealthCheck(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		now := time.Now().UTC()
		if err := db.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":    "unhealthy",
				"database":  "disconnected",
				"timestamp": now,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"database":  "connected",
			"timestamp": now,
		})
	}
}

// APIInfo handles GET /api/v1
func APIInfo(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"name":    "Event Registration API",
			"version": version,
			"endpoints": map[string]string{
				"health":         "GET /health",
				"metrics":        "GET /metrics",
				"createEvent":    "POST /api/events",
				"upcomingEvents": "GET /api/events/upcoming?limit=20&offset=0",
				"getEvent":       "GET /api/events/{id}",
				"register":       "POST /api/events/{id}/register",
				"cancel":         "DELETE /api/events/{id}/register",
				"stats":          "GET /api/events/{id}/stats",
			},
		})
	}
}
