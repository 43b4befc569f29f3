package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/config"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Service     EventAPI
	DB          Pinger
	Logger      zerolog.Logger
	CORS        config.CORSConfig
	RateLimiter *RateLimiter
	Version     string
}

// NewRouter builds the full HTTP handler: middleware stack, API routes,
// health and metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	h := NewEventHandler(cfg.Service)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(CorrelationID(cfg.Logger))
	r.Use(Recoverer)
	r.Use(Tracing)
	r.Use(metrics.HTTPMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS(cfg.CORS))
	r.Use(cfg.RateLimiter.Middleware)

	r.Get("/health", HealthCheck(cfg.DB))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	r.Get("/api/v1", APIInfo(cfg.Version))

	r.Route("/api/events", func(r chi.Router) {
		r.Use(RequireJSON)

		r.Post("/", h.CreateEvent)
		r.Get("/upcoming", h.ListUpcoming)
		r.Get("/{id}", h.GetEvent)
		r.Post("/{id}/register", h.Register)
		r.Delete("/{id}/register", h.Cancel)
		r.Get("/{id}/stats", h.GetStats)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	return r
}
