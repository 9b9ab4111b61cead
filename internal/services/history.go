package services

import (
	"context"
	"math"

	"aurora/internal/core/database"
	"aurora/internal/core/models"
	"aurora/internal/metrics"

	"github.com/sirupsen/logrus"
)

const (
	// Reports before this many seconds of playback are ignored.
	minReportSeconds = 5
	completedPercent = 90
	// Entries at or below this percentage never reach "continue watching".
	resumeThreshold = 0.5
	// Content counts as watched in statistics above this percentage.
	watchedPercent = 10

	DefaultContinueLimit = 10
	MaxContinueLimit     = 50
)

// ComputeProgress rounds current/duration to a whole percentage in [0, 100]
// and reports whether that counts as completed. duration must be positive.
func ComputeProgress(current, duration float64) (int, bool) {
	pct := math.Floor(current/duration*100 + 0.5)
	pct = math.Max(0, math.Min(100, pct))
	return int(pct), pct >= completedPercent
}

// ProgressReport is one playback position sent by the player.
type ProgressReport struct {
	UserID    string
	ContentID string
	CurrentT  float64
	Duration  float64
}

// HistoryService records watch progress and derives statistics.
type HistoryService struct {
	store database.Store
	log   *logrus.Entry
}

// NewHistoryService returns a HistoryService backed by store.
func NewHistoryService(store database.Store, log *logrus.Entry) *HistoryService {
	return &HistoryService{store: store, log: log}
}

// Report records playback progress. Reports that are too early or carry no
// duration are skipped: the returned entry is nil and so is the error.
func (s *HistoryService) Report(ctx context.Context, r ProgressReport) (*models.WatchHistoryEntry, error) {
	if err := requireID("user_id", r.UserID); err != nil {
		return nil, err
	}
	if err := requireID("content_id", r.ContentID); err != nil {
		return nil, err
	}
	if !finite(r.CurrentT) || !finite(r.Duration) {
		return nil, invalid("current_t", "must be a finite number")
	}
	if r.CurrentT < minReportSeconds || r.Duration <= 0 {
		metrics.ProgressReports.WithLabelValues("skipped").Inc()
		return nil, nil
	}

	pct, completed := ComputeProgress(r.CurrentT, r.Duration)
	entry, err := s.store.UpsertProgress(ctx, models.ProgressUpdate{
		UserID:          r.UserID,
		ContentID:       r.ContentID,
		CurrentT:        r.CurrentT,
		Duration:        r.Duration,
		ProgressPercent: pct,
		Completed:       completed,
	})
	if err != nil {
		metrics.ProgressReports.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.ProgressReports.WithLabelValues("stored").Inc()
	return entry, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ContinueWatching lists unfinished content the user has started, most
// recently watched first.
func (s *HistoryService) ContinueWatching(ctx context.Context, userID string, limit int) ([]models.WatchHistoryEntry, error) {
	if err := requireID("user_id", userID); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = DefaultContinueLimit
	}
	if limit > MaxContinueLimit {
		limit = MaxContinueLimit
	}
	return s.store.ListContinueWatching(ctx, userID, limit)
}

// ComputeStats aggregates history rows. Rows whose content no longer exists
// are ignored entirely.
func ComputeStats(rows []models.HistoryStatRow, saved int) models.Stats {
	stats := models.Stats{SavedContent: saved}
	counted := make(map[string]struct{}, len(rows))
	var seconds float64

	for _, row := range rows {
		if row.ContentKind == "" {
			continue
		}
		if row.ProgressPercent > watchedPercent {
			if _, ok := counted[row.ContentID]; !ok {
				counted[row.ContentID] = struct{}{}
				switch row.ContentKind {
				case models.KindMovie:
					stats.MoviesWatched++
				case models.KindSeriesEpisode:
					stats.SeriesWatched++
				}
			}
		}
		seconds += row.Duration * float64(row.ProgressPercent) / 100
	}

	stats.TotalHours = int(math.Floor(seconds/3600 + 0.5))
	return stats
}

// Stats returns the user's watch profile. A failed watchlist count is
// logged and reported as zero saved items.
func (s *HistoryService) Stats(ctx context.Context, userID string) (*models.Stats, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}
	rows, err := s.store.ListHistoryStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	saved, err := s.store.CountWatchlist(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("count watchlist for stats")
		saved = 0
	}
	stats := ComputeStats(rows, saved)
	return &stats, nil
}
