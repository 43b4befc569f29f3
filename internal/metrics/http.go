package metrics

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute labels requests no chi route matched.
const unmatchedRoute = "unmatched"

var (
	httpRequests = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code",
		},
		[]string{"code", "method", "route"},
	)

	httpLatency = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	httpInFlight = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served",
		},
	)

	httpResponseBytes = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response body size by route",
			Buckets:   prometheus.ExponentialBuckets(128, 4, 6),
		},
		[]string{"method", "route"},
	)
)

// HTTPMiddleware instruments next with the promhttp handler wrappers. The
// route label is the chi pattern matched for the request, read after the
// handler has run, so event ids never become label values.
func HTTPMiddleware(next http.Handler) http.Handler {
	route := promhttp.WithLabelFromCtx("route", chiRoute)

	h := promhttp.InstrumentHandlerResponseSize(httpResponseBytes, next, route)
	h = promhttp.InstrumentHandlerDuration(httpLatency, h, route)
	h = promhttp.InstrumentHandlerCounter(httpRequests, h, route)
	return promhttp.InstrumentHandlerInFlight(httpInFlight, h)
}

func chiRoute(ctx context.Context) string {
	if rctx := chi.RouteContext(ctx); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unmatchedRoute
}
