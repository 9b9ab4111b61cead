package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"aurora/internal/cache"
	"aurora/internal/catalog"
	"aurora/internal/core/database"
	"aurora/internal/core/models"
	"aurora/internal/metrics"
	"aurora/internal/streamproxy"

	"github.com/sirupsen/logrus"
)

// Listing limits applied when a request omits or exceeds them.
const (
	DefaultDiscoverLimit = 50
	DefaultSearchLimit   = 20
	DefaultReleasesLimit = 20
	DefaultPerGenre      = 10
	MaxLimit             = 100

	minSearchRunes = 2
)

// CatalogOptions configures CatalogService. Zero values take defaults.
type CatalogOptions struct {
	// GenreWindow is the number of newest rows scanned when a genre filter
	// cannot be pushed down to the store.
	GenreWindow int
	// GroupedWindow is the number of newest rows the grouped view draws from.
	GroupedWindow int
	MaxGenres     int
	GenrePushdown bool
	CacheTTL      time.Duration
}

// CatalogService serves catalog listings, detail pages and cached views.
type CatalogService struct {
	store database.Store
	cache cache.Cache
	proxy *streamproxy.Client
	opts  CatalogOptions
	log   *logrus.Entry
}

// NewCatalogService wires the catalog. c and proxy may be nil.
func NewCatalogService(store database.Store, c cache.Cache, proxy *streamproxy.Client, opts CatalogOptions, log *logrus.Entry) *CatalogService {
	if opts.GenreWindow <= 0 {
		opts.GenreWindow = 1000
	}
	if opts.GroupedWindow <= 0 {
		opts.GroupedWindow = 150
	}
	if opts.MaxGenres <= 0 {
		opts.MaxGenres = 10
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	return &CatalogService{store: store, cache: c, proxy: proxy, opts: opts, log: log}
}

// ListQuery is a catalog listing request. Page is 1-based; a zero Limit
// takes the endpoint default.
type ListQuery struct {
	Kind   models.Kind
	Genre  string
	Search string
	Page   int
	Limit  int
}

// Pagination describes the page returned with a listing.
type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

// ContentPage is one page of deduplicated catalog rows.
type ContentPage struct {
	Contents   []models.Content `json:"contents"`
	Pagination Pagination       `json:"pagination"`
}

// ContentDetail is a content with its episodes when it belongs to a series.
type ContentDetail struct {
	Content  models.Content   `json:"content"`
	Episodes []models.Content `json:"episodes"`
}

// GroupedView buckets catalog rows by genre; Genres lists the buckets in order.
type GroupedView struct {
	GenreContents map[string][]models.Content `json:"genreContents"`
	Genres        []string                    `json:"genres"`
}

// normalize applies paging defaults. Pages whose offset would not fit a
// 32-bit row offset are rejected.
func normalize(q ListQuery, defaultLimit int) (ListQuery, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Page > math.MaxInt32/q.Limit {
		return q, invalid("page", "is out of range")
	}
	q.Genre = strings.TrimSpace(q.Genre)
	return q, nil
}

// ContentBySlug returns the first row for slug as the main content. For a
// series every episode sharing the slug is returned in season/episode order.
func (s *CatalogService) ContentBySlug(ctx context.Context, slug string) (*ContentDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, invalid("slug", "is required")
	}
	rows, err := s.store.GetContentsBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i] = s.withPlayback(rows[i])
	}
	detail := &ContentDetail{Content: rows[0]}
	if rows[0].Kind == models.KindSeriesEpisode {
		detail.Episodes = rows
	}
	return detail, nil
}

func (s *CatalogService) withPlayback(c models.Content) models.Content {
	if s.proxy != nil && c.MediaURL != nil {
		c.PlaybackURL = s.proxy.ProxiedURL(*c.MediaURL)
	}
	return c
}

// Discover lists the catalog filtered by kind and genre.
func (s *CatalogService) Discover(ctx context.Context, q ListQuery) (*ContentPage, error) {
	q, err := normalize(q, DefaultDiscoverLimit)
	if err != nil {
		return nil, err
	}
	q.Search = ""
	if q.Genre == "" || (s.opts.GenrePushdown && catalog.SafeGenre(q.Genre)) {
		return s.pushDown(ctx, q)
	}
	return s.windowed(ctx, q)
}

// Search matches names and series names. Queries shorter than two
// characters return an empty page without touching the store.
func (s *CatalogService) Search(ctx context.Context, q ListQuery) (*ContentPage, error) {
	q, err := normalize(q, DefaultSearchLimit)
	if err != nil {
		return nil, err
	}
	q.Genre = ""
	q.Search = strings.TrimSpace(q.Search)
	if utf8.RuneCountInString(q.Search) < minSearchRunes {
		return &ContentPage{
			Contents:   []models.Content{},
			Pagination: Pagination{Page: q.Page, Limit: q.Limit},
		}, nil
	}
	return s.pushDown(ctx, q)
}

// NewReleases lists the newest catalog entries.
func (s *CatalogService) NewReleases(ctx context.Context, page, limit int) (*ContentPage, error) {
	q, err := normalize(ListQuery{Page: page, Limit: limit}, DefaultReleasesLimit)
	if err != nil {
		return nil, err
	}
	return s.pushDown(ctx, q)
}

// pushDown lets the store filter, deduplicate and paginate.
func (s *CatalogService) pushDown(ctx context.Context, q ListQuery) (*ContentPage, error) {
	rows, total, err := s.store.ListContents(ctx, database.ContentQuery{
		Kind:   q.Kind,
		Genre:  q.Genre,
		Search: q.Search,
		Offset: catalog.Offset(q.Page, q.Limit),
		Limit:  q.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &ContentPage{
		Contents: catalog.Dedupe(rows),
		Pagination: Pagination{
			Page:    q.Page,
			Limit:   q.Limit,
			Total:   total,
			HasMore: len(rows) == q.Limit,
		},
	}, nil
}

// windowed filters genres in-process over the newest GenreWindow rows. Total
// is the deduplicated count of matches inside that window, so recall is
// capped by the window size.
func (s *CatalogService) windowed(ctx context.Context, q ListQuery) (*ContentPage, error) {
	metrics.GenreFallbacks.Inc()
	candidates, err := s.store.ListCandidates(ctx, database.ContentQuery{Kind: q.Kind, Search: q.Search}, s.opts.GenreWindow)
	if err != nil {
		return nil, err
	}
	if len(candidates) >= s.opts.GenreWindow {
		s.log.WithFields(logrus.Fields{"genre": q.Genre, "window": s.opts.GenreWindow}).
			Debug("genre filter hit candidate window")
	}

	matched := catalog.Dedupe(catalog.FilterGenre(candidates, q.Genre))
	page := catalog.Page(matched, q.Page, q.Limit)
	return &ContentPage{
		Contents: page,
		Pagination: Pagination{
			Page:    q.Page,
			Limit:   q.Limit,
			Total:   len(matched),
			HasMore: len(page) == q.Limit,
		},
	}, nil
}

// Grouped buckets the newest GroupedWindow rows by genre, perGenre per bucket.
func (s *CatalogService) Grouped(ctx context.Context, kind models.Kind, perGenre int) (*GroupedView, error) {
	return s.grouped(ctx, kind, perGenre, false)
}

func (s *CatalogService) grouped(ctx context.Context, kind models.Kind, perGenre int, refresh bool) (*GroupedView, error) {
	if perGenre < 1 {
		perGenre = DefaultPerGenre
	}
	if perGenre > MaxLimit {
		perGenre = MaxLimit
	}
	key := fmt.Sprintf("catalog:grouped:%s:%d", kindKey(kind), perGenre)
	return cached(ctx, s, key, refresh, func(ctx context.Context) (*GroupedView, error) {
		rows, err := s.store.ListCandidates(ctx, database.ContentQuery{Kind: kind}, s.opts.GroupedWindow)
		if err != nil {
			return nil, err
		}
		buckets, genres := catalog.GroupByGenre(rows, perGenre, s.opts.MaxGenres)
		return &GroupedView{GenreContents: buckets, Genres: genres}, nil
	})
}

// Featured lists the deduplicated featured rows, newest first.
func (s *CatalogService) Featured(ctx context.Context) ([]models.Content, error) {
	return s.featured(ctx, false)
}

func (s *CatalogService) featured(ctx context.Context, refresh bool) ([]models.Content, error) {
	return cached(ctx, s, "catalog:featured", refresh, func(ctx context.Context) ([]models.Content, error) {
		rows, err := s.store.ListFeatured(ctx)
		if err != nil {
			return nil, err
		}
		return catalog.Dedupe(rows), nil
	})
}

// Genres lists the distinct genres, optionally for one kind.
func (s *CatalogService) Genres(ctx context.Context, kind models.Kind) ([]string, error) {
	return s.genres(ctx, kind, false)
}

func (s *CatalogService) genres(ctx context.Context, kind models.Kind, refresh bool) ([]string, error) {
	return cached(ctx, s, "catalog:genres:"+kindKey(kind), refresh, func(ctx context.Context) ([]string, error) {
		return s.store.ListGenres(ctx, kind)
	})
}

// WarmCache recomputes the cached catalog views the home and discover
// screens open with.
func (s *CatalogService) WarmCache(ctx context.Context) error {
	for _, kind := range []models.Kind{"", models.KindMovie, models.KindSeriesEpisode} {
		if _, err := s.genres(ctx, kind, true); err != nil {
			return fmt.Errorf("warm genres %q: %w", kind, err)
		}
		if _, err := s.grouped(ctx, kind, DefaultPerGenre, true); err != nil {
			return fmt.Errorf("warm grouped %q: %w", kind, err)
		}
	}
	if _, err := s.featured(ctx, true); err != nil {
		return fmt.Errorf("warm featured: %w", err)
	}
	return nil
}

func kindKey(kind models.Kind) string {
	if kind == "" {
		return "all"
	}
	return string(kind)
}

// cached serves key from the cache when possible and stores freshly loaded
// values. Cache failures are logged and never fail the request.
func cached[T any](ctx context.Context, s *CatalogService, key string, refresh bool, load func(context.Context) (T, error)) (T, error) {
	if s.cache != nil && !refresh {
		var v T
		hit, err := cache.GetJSON(ctx, s.cache, key, &v)
		switch {
		case err != nil:
			metrics.CacheRequests.WithLabelValues("catalog", "error").Inc()
			s.log.WithError(err).WithField("key", key).Warn("catalog cache read failed")
		case hit:
			metrics.CacheRequests.WithLabelValues("catalog", "hit").Inc()
			return v, nil
		default:
			metrics.CacheRequests.WithLabelValues("catalog", "miss").Inc()
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, v, s.opts.CacheTTL); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("catalog cache write failed")
		}
	}
	return v, nil
}
