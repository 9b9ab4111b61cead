package database

import (
	"context"
	"fmt"

	"aurora/internal/core/models"
)

const historyColumns = "id, user_id, content_id, current_t, duration, progress_percent, completed, watch_count, first_watched_at, last_watched_at"

// UpsertProgress records one progress report in a single statement. The
// first report creates the row; later ones bump watch_count and
// last_watched_at and leave first_watched_at alone. Concurrent reports for
// the same pair resolve as last write wins.
func (s *DBStore) UpsertProgress(ctx context.Context, p models.ProgressUpdate) (*models.WatchHistoryEntry, error) {
	query := `INSERT INTO watch_history
			(user_id, content_id, current_t, duration, progress_percent, completed, watch_count, first_watched_at, last_watched_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, now(), now())
		ON CONFLICT (user_id, content_id) DO UPDATE SET
			current_t = EXCLUDED.current_t,
			duration = EXCLUDED.duration,
			progress_percent = EXCLUDED.progress_percent,
			completed = EXCLUDED.completed,
			watch_count = watch_history.watch_count + 1,
			last_watched_at = EXCLUDED.last_watched_at
		RETURNING ` + historyColumns
	var entry models.WatchHistoryEntry
	err := s.db.GetContext(ctx, &entry, query, p.UserID, p.ContentID, p.CurrentT, p.Duration, p.ProgressPercent, p.Completed)
	if err != nil {
		return nil, fmt.Errorf("upsert progress: %w", translate(err))
	}
	return &entry, nil
}

// ListContinueWatching returns unfinished entries with meaningful progress,
// most recently watched first, joined with their content.
func (s *DBStore) ListContinueWatching(ctx context.Context, userID string, limit int) ([]models.WatchHistoryEntry, error) {
	query := `SELECT h.id, h.user_id, h.content_id, h.current_t, h.duration, h.progress_percent, h.completed,
			h.watch_count, h.first_watched_at, h.last_watched_at, ` + columns("c", "content") + `
		FROM watch_history h
		JOIN contents c ON c.id = h.content_id
		WHERE h.user_id = $1 AND h.completed = FALSE AND h.progress_percent > 0.5
		ORDER BY h.last_watched_at DESC
		LIMIT $2`
	entries := []models.WatchHistoryEntry{}
	if err := s.db.SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list continue watching: %w", err)
	}
	return entries, nil
}

// ListHistoryStats returns every history row of userID with its content kind; the kind is empty for deleted content.
func (s *DBStore) ListHistoryStats(ctx context.Context, userID string) ([]models.HistoryStatRow, error) {
	query := `SELECT h.content_id, h.duration, h.progress_percent,
			COALESCE(c.kind, '') AS content_kind, c.runtime_minutes
		FROM watch_history h
		LEFT JOIN contents c ON c.id = h.content_id
		WHERE h.user_id = $1`
	rows := []models.HistoryStatRow{}
	if err := s.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list history stats: %w", err)
	}
	return rows, nil
}
