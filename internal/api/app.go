// Package api exposes Aurora over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"aurora/internal/core/database"
	"aurora/internal/logger"
	"aurora/internal/metrics"
	"aurora/internal/services"
	"aurora/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

// Options tunes the HTTP layer.
type Options struct {
	AllowedOrigins []string
	// CacheMaxAge is the shared-cache lifetime of catalog responses in seconds.
	CacheMaxAge     int
	WritesPerSecond float64
	WriteBurst      int
	RequestTimeout  time.Duration
}

// Application holds the services the handlers call.
type Application struct {
	Store     database.Store
	Catalog   *services.CatalogService
	Watchlist *services.WatchlistService
	History   *services.HistoryService
	Requests  *services.RequestService
	Users     *services.UserService
	Log       *logrus.Entry

	opts    Options
	limiter *rate.Limiter
}

// New builds an Application. A non-positive WritesPerSecond disables the write limiter.
func New(store database.Store, catalog *services.CatalogService, watchlist *services.WatchlistService,
	history *services.HistoryService, requests *services.RequestService, users *services.UserService,
	log *logrus.Entry, opts Options) *Application {

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"https://*", "http://*"}
	}
	limit := rate.Inf
	if opts.WritesPerSecond > 0 {
		limit = rate.Limit(opts.WritesPerSecond)
	}
	burst := opts.WriteBurst
	if burst < 1 {
		burst = 1
	}

	return &Application{
		Store:     store,
		Catalog:   catalog,
		Watchlist: watchlist,
		History:   history,
		Requests:  requests,
		Users:     users,
		Log:       log,
		opts:      opts,
		limiter:   rate.NewLimiter(limit, burst),
	}
}

// Routes builds the router.
func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(app.Log))
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(app.opts.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", app.healthHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/contents", func(r chi.Router) {
			r.Get("/discover", app.discoverHandler)
			r.Get("/discover/grouped", app.groupedHandler)
			r.Get("/featured", app.featuredHandler)
			r.Get("/new-releases", app.newReleasesHandler)
			r.Get("/genres", app.genresHandler)
			r.Get("/search", app.searchHandler)
			r.Get("/{slug}", app.contentHandler)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Use(app.limitWrites)
			r.Post("/sync-user", app.syncUserHandler)
			r.Post("/sign-out", app.signOutHandler)
		})

		r.Get("/watchlist", app.listWatchlistHandler)
		r.With(app.limitWrites).Post("/watchlist", app.addWatchlistHandler)
		r.With(app.limitWrites).Delete("/watchlist", app.removeWatchlistHandler)
		r.Get("/watchlist/check", app.checkWatchlistHandler)

		r.Get("/watch-history", app.continueWatchingHandler)
		r.With(app.limitWrites).Post("/watch-history", app.reportProgressHandler)

		r.Get("/user-stats", app.userStatsHandler)

		r.Get("/content-requests", app.listRequestsHandler)
		r.With(app.limitWrites).Post("/content-requests", app.submitRequestHandler)
	})

	return r
}

func (app *Application) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := app.Store.Ping(ctx); err != nil {
		app.Log.WithError(err).Warn("health check: store unreachable")
		app.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// limitWrites applies the process-wide write budget.
func (app *Application) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !app.limiter.Allow() {
			app.writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (app *Application) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		app.Log.WithError(err).Error("encode JSON response")
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeError maps service and store errors onto HTTP statuses. Anything
// unrecognised is a 500 that is logged and reported.
func (app *Application) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case services.IsValidation(err):
		app.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Details: err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		app.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	case errors.Is(err, database.ErrNotFound):
		app.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, database.ErrConflict):
		app.writeJSON(w, http.StatusConflict, errorResponse{Error: "already exists", Details: err.Error()})
	default:
		reqID := middleware.GetReqID(r.Context())
		app.Log.WithError(err).WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     r.Method,
			"path":       r.URL.Path,
		}).Error("request failed")
		telemetry.CaptureError(err, map[string]string{
			"request_id": reqID,
			"operation":  r.Method + " " + r.URL.Path,
		})
		app.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Details: err.Error()})
	}
}

// readJSON decodes the body whatever its declared content type, so
// navigator.sendBeacon payloads sent as text/plain are accepted.
func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &services.ValidationError{Field: "body", Message: fmt.Sprintf("malformed JSON: %v", err)}
	}
	return nil
}

// queryInt parses an optional integer parameter; absent means zero.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &services.ValidationError{Field: key, Message: "must be an integer"}
	}
	return n, nil
}

// cacheable marks a catalog response as shareable by CDNs for N seconds and
// servable stale for 2N more while revalidating.
func (app *Application) cacheable(w http.ResponseWriter) {
	n := app.opts.CacheMaxAge
	if n <= 0 {
		return
	}
	w.Header().Set("Cache-Control", fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate=%d", n, 2*n))
}
