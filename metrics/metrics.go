// Package metrics holds the service's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_http_requests_total",
		Help: "HTTP requests handled, by method, route pattern and status.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leaderboard_http_request_duration_seconds",
		Help:    "HTTP request latency, by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// SnapshotRefreshes counts upstream leaderboard fetches, deduped
	// ones excluded.
	SnapshotRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_snapshot_refreshes_total",
		Help: "Upstream snapshot refreshes, by outcome.",
	}, []string{"outcome"})

	// SnapshotRefreshDuration times successful upstream fetches,
	// parse included.
	SnapshotRefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "leaderboard_snapshot_refresh_duration_seconds",
		Help:    "Time to fetch and parse one leaderboard snapshot.",
		Buckets: prometheus.DefBuckets,
	})

	// WebsocketJoins counts sockets that joined a season room.
	WebsocketJoins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_websocket_joins_total",
		Help: "Sockets that joined a season room.",
	})

	// WebsocketViewers tracks sockets currently connected across all
	// season rooms.
	WebsocketViewers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "leaderboard_websocket_viewers",
		Help: "Sockets currently connected, across all season rooms.",
	})
)

// Instrument records request count and latency per chi route pattern.
// Mount it before the routes so the pattern is resolved by the time
// the inner handler returns.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
