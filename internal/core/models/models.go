package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Kind discriminates movies from series episodes.
type Kind string

const (
	KindMovie         Kind = "MOVIE"
	KindSeriesEpisode Kind = "SERIES_EPISODE"
)

// ParseKind accepts the canonical kinds plus the aliases older clients send
// (FILME, SERIE, movie, series). An empty string yields an empty Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", true
	case "MOVIE", "FILME":
		return KindMovie, true
	case "SERIES_EPISODE", "SERIE", "SERIES":
		return KindSeriesEpisode, true
	}
	return "", false
}

// Content represents the 'contents' table. One row per playable unit.
type Content struct {
	ID             string         `db:"id" json:"id"`
	Slug           string         `db:"slug" json:"slug"`
	Kind           Kind           `db:"kind" json:"kind"`
	SeriesName     *string        `db:"series_name" json:"series_name"`
	Season         *string        `db:"season" json:"season"`
	Episode        *int           `db:"episode" json:"episode"`
	Name           string         `db:"name" json:"name"`
	Synopsis       *string        `db:"synopsis" json:"synopsis"`
	ReleaseYear    *int           `db:"release_year" json:"release_year"`
	RuntimeMinutes *int           `db:"runtime_minutes" json:"runtime_minutes"`
	Rating         *float64       `db:"rating" json:"rating"`
	PosterURL      *string        `db:"poster_url" json:"poster_url"`
	BannerURL      *string        `db:"banner_url" json:"banner_url"`
	Director       *string        `db:"director" json:"director"`
	Cast           CastList       `db:"cast_members" json:"cast"`
	Genres         pq.StringArray `db:"genres" json:"genres"`
	MediaURL       *string        `db:"media_url" json:"media_url"`
	Featured       bool           `db:"featured" json:"featured"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`

	// PlaybackURL is derived from MediaURL at response time, never stored.
	PlaybackURL string `db:"-" json:"playback_url,omitempty"`
}

// SeriesKey identifies the show an episode belongs to: the series name when
// present, otherwise the display name.
func (c Content) SeriesKey() string {
	if c.SeriesName != nil && *c.SeriesName != "" {
		return *c.SeriesName
	}
	return c.Name
}

// User represents the 'users' table.
type User struct {
	ID               string     `db:"id" json:"id"`
	FirebaseUID      string     `db:"firebase_uid" json:"firebase_uid"`
	Email            string     `db:"email" json:"email"`
	DisplayName      *string    `db:"display_name" json:"display_name"`
	PhotoURL         *string    `db:"photo_url" json:"photo_url"`
	LastLogin        *time.Time `db:"last_login" json:"last_login"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	SubscriptionTier string     `db:"subscription_tier" json:"subscription_tier"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// UserSync carries the identity fields reported by the auth provider.
type UserSync struct {
	FirebaseUID string
	Email       string
	DisplayName *string
	PhotoURL    *string
}

// WatchlistEntry represents the 'watchlist' table joined with its content.
type WatchlistEntry struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ContentID string    `db:"content_id" json:"content_id"`
	AddedAt   time.Time `db:"added_at" json:"added_at"`
	Content   *Content  `db:"content" json:"contents,omitempty"`
}

// WatchHistoryEntry represents the 'watch_history' table.
type WatchHistoryEntry struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	ContentID       string    `db:"content_id" json:"content_id"`
	CurrentT        float64   `db:"current_t" json:"current_t"`
	Duration        float64   `db:"duration" json:"duration"`
	ProgressPercent int       `db:"progress_percent" json:"progress_percent"`
	Completed       bool      `db:"completed" json:"completed"`
	WatchCount      int       `db:"watch_count" json:"watch_count"`
	FirstWatchedAt  time.Time `db:"first_watched_at" json:"first_watched_at"`
	LastWatchedAt   time.Time `db:"last_watched_at" json:"last_watched_at"`
	Content         *Content  `db:"content" json:"content,omitempty"`
}

// ProgressUpdate is a computed progress report ready to be upserted.
type ProgressUpdate struct {
	UserID          string
	ContentID       string
	CurrentT        float64
	Duration        float64
	ProgressPercent int
	Completed       bool
}

// HistoryStatRow is a watch history row joined with the fields statistics need.
// ContentKind is empty when the content row no longer exists.
type HistoryStatRow struct {
	ContentID       string  `db:"content_id"`
	Duration        float64 `db:"duration"`
	ProgressPercent int     `db:"progress_percent"`
	ContentKind     Kind    `db:"content_kind"`
	RuntimeMinutes  *int    `db:"runtime_minutes"`
}

// Stats is the aggregated watch profile of a user.
type Stats struct {
	MoviesWatched int `json:"movies_watched"`
	SeriesWatched int `json:"series_watched"`
	TotalHours    int `json:"total_hours"`
	SavedContent  int `json:"saved_content"`
}

// RequestType is the kind of title a content request asks for.
type RequestType string

const (
	RequestMovie  RequestType = "movie"
	RequestSeries RequestType = "series"
)

// RequestStatus tracks a content request through review.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestDone     RequestStatus = "done"
	RequestRejected RequestStatus = "rejected"
)

// ContentRequest represents the 'content_requests' table.
type ContentRequest struct {
	ID          string        `db:"id" json:"id"`
	UserID      string        `db:"user_id" json:"user_id"`
	ContentName string        `db:"content_name" json:"content_name"`
	ContentType RequestType   `db:"content_type" json:"content_type"`
	SourceInfo  *string       `db:"source_info" json:"source_info"`
	Status      RequestStatus `db:"status" json:"status"`
	AdminNote   *string       `db:"admin_note" json:"admin_note"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}
