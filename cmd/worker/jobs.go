package main

import (
	"context"
	"time"

	"aurora/internal/metrics"
	"aurora/internal/services"
	"aurora/internal/streamproxy"
	"aurora/internal/telemetry"

	"github.com/sirupsen/logrus"
)

const jobTimeout = 2 * time.Minute

// Worker holds the dependencies of the scheduled jobs. A nil Catalog
// disables the warm-up job.
type Worker struct {
	Catalog *services.CatalogService
	Proxy   *streamproxy.Client
	Log     *logrus.Entry
}

// warmCatalog recomputes the cached catalog views.
func (w *Worker) warmCatalog() {
	if w.Catalog == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := w.Catalog.WarmCache(ctx); err != nil {
		metrics.JobRuns.WithLabelValues("warm_catalog", "error").Inc()
		w.Log.WithError(err).Error("catalog warm-up failed")
		telemetry.CaptureError(err, map[string]string{"operation": "warm_catalog"})
		return
	}
	metrics.JobRuns.WithLabelValues("warm_catalog", "ok").Inc()
	w.Log.WithField("elapsed_ms", time.Since(start).Milliseconds()).Info("catalog cache warmed")
}

// probeProxy records whether the stream proxy answers its health check.
func (w *Worker) probeProxy() {
	if w.Proxy == nil || !w.Proxy.Configured() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := w.Proxy.Health(ctx); err != nil {
		metrics.ProxyUp.Set(0)
		metrics.JobRuns.WithLabelValues("probe_proxy", "error").Inc()
		w.Log.WithError(err).Warn("stream proxy unhealthy")
		return
	}
	metrics.ProxyUp.Set(1)
	metrics.JobRuns.WithLabelValues("probe_proxy", "ok").Inc()
}
