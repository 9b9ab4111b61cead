// Package memory is an in-process implementation of database.Store used in
// development mode and tests. It applies the same ordering, deduplication and
// uniqueness rules as the Postgres store.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"aurora/internal/catalog"
	"aurora/internal/core/database"
	"aurora/internal/core/models"

	"github.com/google/uuid"
)

type pairKey struct{ userID, contentID string }

// Store keeps every table in maps guarded by one lock.
type Store struct {
	mu          sync.RWMutex
	contents    []models.Content
	users       map[string]models.User // by firebase uid
	preferences map[string]bool        // user ids with default preferences
	watchlist   map[pairKey]models.WatchlistEntry
	history     map[pairKey]models.WatchHistoryEntry
	requests    []models.ContentRequest

	// Now is the clock used for timestamps.
	Now func() time.Time
}

// NewStore returns an empty store using the wall clock.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]models.User),
		preferences: make(map[string]bool),
		watchlist:   make(map[pairKey]models.WatchlistEntry),
		history:     make(map[pairKey]models.WatchHistoryEntry),
		Now:         time.Now,
	}
}

// AddContent seeds a catalog row. Missing ids and timestamps are filled in.
func (s *Store) AddContent(c models.Content) models.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.Now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	s.contents = append(s.contents, c)
	return c
}

func (s *Store) Ping(ctx context.Context) error { return nil }

// sorted returns a copy of the catalog, newest first with id as tiebreak.
func (s *Store) sorted() []models.Content {
	out := make([]models.Content, len(s.contents))
	copy(out, s.contents)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func matches(c models.Content, q database.ContentQuery, withGenre bool) bool {
	if q.Kind != "" && c.Kind != q.Kind {
		return false
	}
	if withGenre && q.Genre != "" && !catalog.HasGenre(c, q.Genre) {
		return false
	}
	if q.Search != "" && !catalog.MatchesSearch(c, q.Search) {
		return false
	}
	return true
}

func (s *Store) ListContents(ctx context.Context, q database.ContentQuery) ([]models.Content, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []models.Content
	for _, c := range s.sorted() {
		if matches(c, q, true) {
			filtered = append(filtered, c)
		}
	}
	deduped := catalog.Dedupe(filtered)
	return sliceOffset(deduped, q.Offset, q.Limit), len(deduped), nil
}

func sliceOffset(contents []models.Content, offset, limit int) []models.Content {
	if offset < 0 || offset >= len(contents) || limit <= 0 {
		return []models.Content{}
	}
	end := offset + min(limit, len(contents)-offset)
	return contents[offset:end]
}

func (s *Store) ListCandidates(ctx context.Context, q database.ContentQuery, window int) ([]models.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Content{}
	for _, c := range s.sorted() {
		if len(out) >= window {
			break
		}
		if matches(c, q, false) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) ListFeatured(ctx context.Context) ([]models.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Content{}
	for _, c := range s.sorted() {
		if c.Featured {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) GetContentsBySlug(ctx context.Context, slug string) ([]models.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Content
	for _, c := range s.contents {
		if c.Slug == slug {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, database.ErrNotFound
	}
	sort.SliceStable(out, func(i, j int) bool { return episodeBefore(out[i], out[j]) })
	return out, nil
}

// episodeBefore orders like the Postgres store: the digits of the season
// as a number, then the season text, then the episode, then creation time.
// Missing values sort first.
func episodeBefore(a, b models.Content) bool {
	na, oka := seasonNumber(a.Season)
	nb, okb := seasonNumber(b.Season)
	if oka != okb {
		return !oka
	}
	if na != nb {
		return na < nb
	}
	if (a.Season == nil) != (b.Season == nil) {
		return a.Season == nil
	}
	if sa, sb := deref(a.Season), deref(b.Season); sa != sb {
		return sa < sb
	}
	if (a.Episode == nil) != (b.Episode == nil) {
		return a.Episode == nil
	}
	if ea, eb := derefInt(a.Episode), derefInt(b.Episode); ea != eb {
		return ea < eb
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func seasonNumber(season *string) (int, bool) {
	if season == nil {
		return 0, false
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, *season)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *Store) ListGenres(ctx context.Context, kind models.Kind) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []string
	for _, c := range s.contents {
		if kind == "" || c.Kind == kind {
			all = append(all, c.Genres...)
		}
	}
	return catalog.DistinctGenres(all), nil
}

func (s *Store) UpsertUser(ctx context.Context, u models.UserSync) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	user, ok := s.users[u.FirebaseUID]
	if !ok {
		user = models.User{
			ID:               uuid.NewString(),
			FirebaseUID:      u.FirebaseUID,
			IsActive:         true,
			SubscriptionTier: "free",
			CreatedAt:        now,
		}
		s.preferences[user.ID] = true
	}
	user.Email = u.Email
	if u.DisplayName != nil {
		user.DisplayName = u.DisplayName
	}
	if u.PhotoURL != nil {
		user.PhotoURL = u.PhotoURL
	}
	user.LastLogin = &now
	user.UpdatedAt = now
	s.users[u.FirebaseUID] = user
	return &user, nil
}

// HasPreferences reports whether default preferences exist for userID.
func (s *Store) HasPreferences(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preferences[userID]
}

func (s *Store) contentByID(id string) (models.Content, bool) {
	for _, c := range s.contents {
		if c.ID == id {
			return c, true
		}
	}
	return models.Content{}, false
}

func (s *Store) ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.WatchlistEntry{}
	for k, e := range s.watchlist {
		if k.userID != userID {
			continue
		}
		c, ok := s.contentByID(e.ContentID)
		if !ok {
			continue
		}
		e.Content = &c
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	return out, nil
}

func (s *Store) AddToWatchlist(ctx context.Context, userID, contentID string) (*models.WatchlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contentByID(contentID); !ok {
		return nil, database.ErrNotFound
	}
	k := pairKey{userID, contentID}
	if _, ok := s.watchlist[k]; ok {
		return nil, database.ErrConflict
	}
	e := models.WatchlistEntry{ID: uuid.NewString(), UserID: userID, ContentID: contentID, AddedAt: s.Now()}
	s.watchlist[k] = e
	return &e, nil
}

func (s *Store) RemoveFromWatchlist(ctx context.Context, userID, contentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watchlist, pairKey{userID, contentID})
	return nil
}

func (s *Store) IsInWatchlist(ctx context.Context, userID, contentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.watchlist[pairKey{userID, contentID}]
	return ok, nil
}

func (s *Store) CountWatchlist(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.watchlist {
		if k.userID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpsertProgress(ctx context.Context, p models.ProgressUpdate) (*models.WatchHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contentByID(p.ContentID); !ok {
		return nil, database.ErrNotFound
	}
	now := s.Now()
	k := pairKey{p.UserID, p.ContentID}
	e, ok := s.history[k]
	if !ok {
		e = models.WatchHistoryEntry{
			ID:             uuid.NewString(),
			UserID:         p.UserID,
			ContentID:      p.ContentID,
			FirstWatchedAt: now,
		}
	}
	e.CurrentT = p.CurrentT
	e.Duration = p.Duration
	e.ProgressPercent = p.ProgressPercent
	e.Completed = p.Completed
	e.WatchCount++
	e.LastWatchedAt = now
	s.history[k] = e
	return &e, nil
}

// HistoryEntry returns the stored row for a pair, if any.
func (s *Store) HistoryEntry(userID, contentID string) (models.WatchHistoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.history[pairKey{userID, contentID}]
	return e, ok
}

func (s *Store) ListContinueWatching(ctx context.Context, userID string, limit int) ([]models.WatchHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.WatchHistoryEntry{}
	for k, e := range s.history {
		if k.userID != userID || e.Completed || float64(e.ProgressPercent) <= 0.5 {
			continue
		}
		c, ok := s.contentByID(e.ContentID)
		if !ok {
			continue
		}
		e.Content = &c
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastWatchedAt.After(out[j].LastWatchedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListHistoryStats(ctx context.Context, userID string) ([]models.HistoryStatRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.HistoryStatRow{}
	for k, e := range s.history {
		if k.userID != userID {
			continue
		}
		row := models.HistoryStatRow{ContentID: e.ContentID, Duration: e.Duration, ProgressPercent: e.ProgressPercent}
		if c, ok := s.contentByID(e.ContentID); ok {
			row.ContentKind = c.Kind
			row.RuntimeMinutes = c.RuntimeMinutes
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Store) ListContentRequests(ctx context.Context, userID string) ([]models.ContentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.ContentRequest{}
	for _, r := range s.requests {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) hasPending(userID, name string) bool {
	for _, r := range s.requests {
		if r.UserID == userID && r.Status == models.RequestPending && strings.EqualFold(r.ContentName, name) {
			return true
		}
	}
	return false
}

func (s *Store) HasPendingRequest(ctx context.Context, userID, contentName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasPending(userID, contentName), nil
}

func (s *Store) CreateContentRequest(ctx context.Context, req models.ContentRequest) (*models.ContentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasPending(req.UserID, req.ContentName) {
		return nil, database.ErrConflict
	}
	req.ID = uuid.NewString()
	req.Status = models.RequestPending
	req.CreatedAt = s.Now()
	s.requests = append(s.requests, req)
	return &req, nil
}

// SetRequestStatus stands in for the administrative actor that resolves requests.
func (s *Store) SetRequestStatus(id string, status models.RequestStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.requests {
		if s.requests[i].ID == id {
			s.requests[i].Status = status
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
