package database

import (
	"context"
	"fmt"

	"aurora/internal/core/models"
)

// ListWatchlist returns the saved contents of userID, newest first.
func (s *DBStore) ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	query := `SELECT w.id, w.user_id, w.content_id, w.added_at, ` + columns("c", "content") + `
		FROM watchlist w
		JOIN contents c ON c.id = w.content_id
		WHERE w.user_id = $1
		ORDER BY w.added_at DESC`
	entries := []models.WatchlistEntry{}
	if err := s.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	return entries, nil
}

// AddToWatchlist inserts the pair; a second insert of the same pair yields
// ErrConflict from the (user_id, content_id) unique constraint.
func (s *DBStore) AddToWatchlist(ctx context.Context, userID, contentID string) (*models.WatchlistEntry, error) {
	query := `INSERT INTO watchlist (user_id, content_id) VALUES ($1, $2)
		RETURNING id, user_id, content_id, added_at`
	var entry models.WatchlistEntry
	if err := s.db.QueryRowxContext(ctx, query, userID, contentID).Scan(&entry.ID, &entry.UserID, &entry.ContentID, &entry.AddedAt); err != nil {
		return nil, fmt.Errorf("add to watchlist: %w", translate(err))
	}
	return &entry, nil
}

// RemoveFromWatchlist deletes the pair; removing a missing pair is not an error.
func (s *DBStore) RemoveFromWatchlist(ctx context.Context, userID, contentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM watchlist WHERE user_id = $1 AND content_id = $2`, userID, contentID)
	if err != nil {
		return fmt.Errorf("remove from watchlist: %w", err)
	}
	return nil
}

// IsInWatchlist reports whether the pair is saved.
func (s *DBStore) IsInWatchlist(ctx context.Context, userID, contentID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM watchlist WHERE user_id = $1 AND content_id = $2)`, userID, contentID)
	if err != nil {
		return false, fmt.Errorf("check watchlist: %w", err)
	}
	return exists, nil
}

// CountWatchlist counts the saved contents of userID.
func (s *DBStore) CountWatchlist(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM watchlist WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("count watchlist: %w", err)
	}
	return n, nil
}
