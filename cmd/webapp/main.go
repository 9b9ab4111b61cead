package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aurora/internal/api"
	"aurora/internal/auth"
	"aurora/internal/cache"
	"aurora/internal/config"
	"aurora/internal/core/database"
	"aurora/internal/core/memory"
	"aurora/internal/logger"
	"aurora/internal/services"
	"aurora/internal/streamproxy"
	"aurora/internal/telemetry"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	log := logger.New("webapp", cfg.LogLevel)

	if enabled, err := telemetry.Init(cfg.SentryDSN, "webapp", cfg.Environment, version); err != nil {
		log.WithError(err).Warn("Sentry disabled")
	} else if enabled {
		defer telemetry.Flush()
	}

	store, closeStore := openStore(cfg, log)
	defer closeStore()

	c := openCache(cfg, log)
	proxy := streamproxy.NewClient(cfg.ProxyURL, cfg.ProxyToken)

	var verifier auth.Verifier
	if cfg.FirebaseProjectID != "" {
		verifier = auth.NewFirebaseVerifier(context.Background(), cfg.FirebaseProjectID)
	}

	catalog := services.NewCatalogService(store, c, proxy, services.CatalogOptions{
		GenreWindow:   cfg.Catalog.GenreWindow,
		GroupedWindow: cfg.Catalog.GroupedWindow,
		MaxGenres:     cfg.Catalog.MaxGenres,
		GenrePushdown: cfg.Catalog.GenrePushdown,
		CacheTTL:      time.Duration(cfg.Catalog.CacheMaxAge) * time.Second,
	}, log)
	users := services.NewUserService(store, c, verifier, services.UserOptions{
		SyncTimeout: cfg.SyncTimeout(),
		CacheTTL:    cfg.UserCacheTTL(),
	}, log)

	app := api.New(store, catalog,
		services.NewWatchlistService(store),
		services.NewHistoryService(store, log),
		services.NewRequestService(store),
		users, log, api.Options{
			AllowedOrigins:  cfg.AllowedOrigins,
			CacheMaxAge:     cfg.Catalog.CacheMaxAge,
			WritesPerSecond: cfg.Limits.WritesPerSecond,
			WriteBurst:      cfg.Limits.WriteBurst,
		})

	log.WithField("port", cfg.Port).Info("Starting API server")
	if err := serve(app.Routes(), cfg.Port, log); err != nil {
		log.WithError(err).Fatal("Could not start server")
	}
}

// openStore connects to Postgres. Without DATABASE_URL in development the
// in-memory store is used instead.
func openStore(cfg *config.Config, log *logrus.Entry) (database.Store, func()) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")
		return memory.NewStore(), func() {}
	}
	store, err := database.NewDBStore(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to the database")
	}
	return store, func() { store.Close() }
}

func openCache(cfg *config.Config, log *logrus.Entry) cache.Cache {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, using in-process cache")
		return cache.NewMemory()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := cache.NewRedis(ctx, cfg.RedisURL, "aurora:")
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, using in-process cache")
		return cache.NewMemory()
	}
	return r
}

func serve(handler http.Handler, port string, log *logrus.Entry) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
