package services

import (
	"context"

	"aurora/internal/core/database"
	"aurora/internal/core/models"
)

// WatchlistService manages saved contents per user.
type WatchlistService struct {
	store database.Store
}

// NewWatchlistService returns a WatchlistService backed by store.
func NewWatchlistService(store database.Store) *WatchlistService {
	return &WatchlistService{store: store}
}

// List returns the user's saved content, most recently added first.
func (s *WatchlistService) List(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}
	return s.store.ListWatchlist(ctx, userID)
}

// Add saves contentID. Saving the same content twice yields database.ErrConflict.
func (s *WatchlistService) Add(ctx context.Context, userID, contentID string) (*models.WatchlistEntry, error) {
	if err := validatePair(userID, contentID); err != nil {
		return nil, err
	}
	return s.store.AddToWatchlist(ctx, userID, contentID)
}

// Remove is idempotent.
func (s *WatchlistService) Remove(ctx context.Context, userID, contentID string) error {
	if err := validatePair(userID, contentID); err != nil {
		return err
	}
	return s.store.RemoveFromWatchlist(ctx, userID, contentID)
}

// Contains reports whether the pair is saved.
func (s *WatchlistService) Contains(ctx context.Context, userID, contentID string) (bool, error) {
	if err := validatePair(userID, contentID); err != nil {
		return false, err
	}
	return s.store.IsInWatchlist(ctx, userID, contentID)
}

func validatePair(userID, contentID string) error {
	if err := requireID("userId", userID); err != nil {
		return err
	}
	return requireID("contentId", contentID)
}
