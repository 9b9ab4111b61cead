// Package metrics holds the Prometheus instrumentation shared by the API and
// the worker. Everything registers on the default registry at init time and
// is exposed by Handler at GET /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPRequests counts HTTP requests by method, route pattern and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aurora_http_requests_total",
	Help: "Total HTTP requests handled.",
}, []string{"method", "route", "status"})

// HTTPDuration tracks HTTP request latency.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "aurora_http_request_duration_seconds",
	Help:    "HTTP request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route"})

// ProgressReports counts watch-progress reports by outcome (stored, skipped).
var ProgressReports = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aurora_progress_reports_total",
	Help: "Watch progress reports by outcome.",
}, []string{"outcome"})

// CacheRequests counts cache lookups by cache name and result (hit, miss, error).
var CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aurora_cache_requests_total",
	Help: "Cache lookups by cache and result.",
}, []string{"cache", "result"})

// GenreFallbacks counts discover queries answered by the in-process genre window.
var GenreFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "aurora_genre_window_fallbacks_total",
	Help: "Discover queries filtered in-process over a candidate window.",
})

// ProxyUp is 1 when the last stream proxy health probe succeeded.
var ProxyUp = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "aurora_stream_proxy_up",
	Help: "Whether the last stream proxy health probe succeeded.",
})

// JobRuns counts worker job executions by job and result.
var JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aurora_worker_job_runs_total",
	Help: "Worker job runs by job and result.",
}, []string{"job", "result"})

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency. It must be mounted on a chi
// router so the matched route pattern, not the raw path, becomes the label.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
