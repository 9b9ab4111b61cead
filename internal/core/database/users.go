package database

import (
	"context"
	"fmt"

	"aurora/internal/core/models"
)

const userColumns = "id, firebase_uid, email, display_name, photo_url, last_login, is_active, subscription_tier, created_at, updated_at"

// UpsertUser creates the user on first sync or refreshes the profile fields
// and last_login on later syncs. Omitted profile fields keep their value.
// Default preferences are created alongside a new user.
func (s *DBStore) UpsertUser(ctx context.Context, u models.UserSync) (*models.User, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin user sync: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO users (firebase_uid, email, display_name, photo_url, last_login)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (firebase_uid) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = COALESCE(EXCLUDED.display_name, users.display_name),
			photo_url = COALESCE(EXCLUDED.photo_url, users.photo_url),
			last_login = EXCLUDED.last_login,
			updated_at = now()
		RETURNING ` + userColumns
	var user models.User
	if err := tx.GetContext(ctx, &user, query, u.FirebaseUID, u.Email, u.DisplayName, u.PhotoURL); err != nil {
		return nil, fmt.Errorf("upsert user: %w", translate(err))
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO user_preferences (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, user.ID); err != nil {
		return nil, fmt.Errorf("create user preferences: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit user sync: %w", err)
	}
	return &user, nil
}
