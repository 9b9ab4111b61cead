package services

import (
	"context"
	"fmt"
	"strings"

	"aurora/internal/core/database"
	"aurora/internal/core/models"
)

// ParseRequestType accepts movie and series plus the filme and serie spellings.
func ParseRequestType(s string) (models.RequestType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "filme":
		return models.RequestMovie, true
	case "series", "serie":
		return models.RequestSeries, true
	}
	return "", false
}

// SubmitRequest is a user asking for a title to be added.
type SubmitRequest struct {
	UserID      string
	ContentName string
	ContentType string
	SourceInfo  *string
}

// RequestService manages content requests.
type RequestService struct {
	store database.Store
}

// NewRequestService returns a RequestService backed by store.
func NewRequestService(store database.Store) *RequestService {
	return &RequestService{store: store}
}

// List returns the user's requests, newest first.
func (s *RequestService) List(ctx context.Context, userID string) ([]models.ContentRequest, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}
	return s.store.ListContentRequests(ctx, userID)
}

// Submit files a pending request. A pending request with the same name,
// compared case-insensitively, yields database.ErrConflict.
func (s *RequestService) Submit(ctx context.Context, r SubmitRequest) (*models.ContentRequest, error) {
	if err := requireID("userId", r.UserID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(r.ContentName)
	if name == "" {
		return nil, invalid("contentName", "is required")
	}
	kind, ok := ParseRequestType(r.ContentType)
	if !ok {
		return nil, invalid("contentType", "must be movie or series")
	}
	var source *string
	if r.SourceInfo != nil {
		if trimmed := strings.TrimSpace(*r.SourceInfo); trimmed != "" {
			source = &trimmed
		}
	}

	pending, err := s.store.HasPendingRequest(ctx, r.UserID, name)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("%w: a pending request for %q already exists", database.ErrConflict, name)
	}

	return s.store.CreateContentRequest(ctx, models.ContentRequest{
		UserID:      r.UserID,
		ContentName: name,
		ContentType: kind,
		SourceInfo:  source,
	})
}
