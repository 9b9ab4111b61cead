package database

import (
	"context"
	"fmt"

	"aurora/internal/core/models"
)

const requestColumns = "id, user_id, content_name, content_type, source_info, status, admin_note, created_at"

// ListContentRequests returns the requests of userID, newest first.
func (s *DBStore) ListContentRequests(ctx context.Context, userID string) ([]models.ContentRequest, error) {
	requests := []models.ContentRequest{}
	query := `SELECT ` + requestColumns + ` FROM content_requests WHERE user_id = $1 ORDER BY created_at DESC`
	if err := s.db.SelectContext(ctx, &requests, query, userID); err != nil {
		return nil, fmt.Errorf("list content requests: %w", err)
	}
	return requests, nil
}

// HasPendingRequest matches names case-insensitively and exactly.
func (s *DBStore) HasPendingRequest(ctx context.Context, userID, contentName string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM content_requests
		WHERE user_id = $1 AND lower(content_name) = lower($2) AND status = 'pending')`
	if err := s.db.GetContext(ctx, &exists, query, userID, contentName); err != nil {
		return false, fmt.Errorf("check pending request: %w", err)
	}
	return exists, nil
}

// CreateContentRequest inserts a pending request. A racing duplicate is
// rejected by the partial unique index and surfaces as ErrConflict.
func (s *DBStore) CreateContentRequest(ctx context.Context, req models.ContentRequest) (*models.ContentRequest, error) {
	query := `INSERT INTO content_requests (user_id, content_name, content_type, source_info, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING ` + requestColumns
	var created models.ContentRequest
	if err := s.db.GetContext(ctx, &created, query, req.UserID, req.ContentName, string(req.ContentType), req.SourceInfo); err != nil {
		return nil, fmt.Errorf("create content request: %w", translate(err))
	}
	return &created, nil
}
