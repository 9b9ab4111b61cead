package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aurora/internal/cache"
	"aurora/internal/config"
	"aurora/internal/core/database"
	"aurora/internal/logger"
	"aurora/internal/metrics"
	"aurora/internal/services"
	"aurora/internal/streamproxy"
	"aurora/internal/telemetry"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	log := logger.New("worker", cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL must be set")
	}
	if enabled, err := telemetry.Init(cfg.SentryDSN, "worker", cfg.Environment, version); err != nil {
		log.WithError(err).Warn("Sentry disabled")
	} else if enabled {
		defer telemetry.Flush()
	}

	store, err := database.NewDBStore(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to the database")
	}
	defer store.Close()

	var c cache.Cache
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		r, err := cache.NewRedis(ctx, cfg.RedisURL, "aurora:")
		cancel()
		if err != nil {
			log.WithError(err).Fatal("Could not connect to Redis")
		}
		c = r
	}

	w := &Worker{
		Proxy: streamproxy.NewClient(cfg.ProxyURL, cfg.ProxyToken),
		Log:   log,
	}
	if c != nil {
		w.Catalog = services.NewCatalogService(store, c, nil, services.CatalogOptions{
			GroupedWindow: cfg.Catalog.GroupedWindow,
			MaxGenres:     cfg.Catalog.MaxGenres,
			CacheTTL:      time.Duration(cfg.Catalog.CacheMaxAge) * time.Second,
		}, log)
	} else {
		log.Warn("REDIS_URL not set, catalog warm-up disabled")
	}

	log.Info("Starting cron job scheduler...")
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.Worker.WarmSchedule, w.warmCatalog); err != nil {
		log.WithError(err).Fatal("Could not add catalog warm-up job")
	}
	if _, err := sched.AddFunc(cfg.Worker.ProbeSchedule, w.probeProxy); err != nil {
		log.WithError(err).Fatal("Could not add proxy probe job")
	}

	log.Info("Running initial jobs")
	w.warmCatalog()
	w.probeProxy()

	sched.Start()
	srv := &http.Server{Addr: cfg.Worker.MetricsAddr, Handler: metrics.Handler(), ReadTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Stopping scheduler...")
	<-sched.Stop().Done()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}
