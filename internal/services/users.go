package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aurora/internal/auth"
	"aurora/internal/cache"
	"aurora/internal/core/database"
	"aurora/internal/core/models"
	"aurora/internal/metrics"

	"github.com/sirupsen/logrus"
)

// UserOptions configures UserService.
type UserOptions struct {
	SyncTimeout time.Duration
	CacheTTL    time.Duration
}

// UserService syncs identities from the auth provider into users.
type UserService struct {
	store    database.Store
	cache    cache.Cache
	verifier auth.Verifier
	opts     UserOptions
	log      *logrus.Entry
}

// NewUserService wires user sync. A nil verifier disables token checks and
// a nil cache disables the stale fallback.
func NewUserService(store database.Store, c cache.Cache, verifier auth.Verifier, opts UserOptions, log *logrus.Entry) *UserService {
	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = 10 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 7 * 24 * time.Hour
	}
	return &UserService{store: store, cache: c, verifier: verifier, opts: opts, log: log}
}

// SyncRequest is the profile reported by the client after sign-in.
type SyncRequest struct {
	FirebaseUID string
	Email       string
	DisplayName *string
	PhotoURL    *string
	// IDToken is the caller's bearer token, checked when a verifier is set.
	IDToken string
}

// SyncResult is the synced user. Stale marks a cached copy served while the store was unavailable.
type SyncResult struct {
	User  *models.User `json:"user"`
	Stale bool         `json:"stale,omitempty"`
}

func userKey(firebaseUID string) string {
	return "user:" + firebaseUID
}

// Sync upserts the local user for a Firebase identity. When the store fails
// or times out and a previously synced copy is cached, that copy is returned
// marked stale.
func (s *UserService) Sync(ctx context.Context, r SyncRequest) (*SyncResult, error) {
	uid := strings.TrimSpace(r.FirebaseUID)
	if uid == "" {
		return nil, invalid("firebaseUid", "is required")
	}
	email := strings.TrimSpace(r.Email)
	if email == "" {
		return nil, invalid("email", "is required")
	}
	if err := s.authorize(ctx, uid, r.IDToken); err != nil {
		return nil, err
	}

	syncCtx, cancel := context.WithTimeout(ctx, s.opts.SyncTimeout)
	defer cancel()

	user, err := s.store.UpsertUser(syncCtx, models.UserSync{
		FirebaseUID: uid,
		Email:       email,
		DisplayName: r.DisplayName,
		PhotoURL:    r.PhotoURL,
	})
	if err != nil {
		if cached, ok := s.cachedUser(ctx, uid); ok {
			s.log.WithError(err).WithField("firebase_uid", uid).Warn("user sync failed, serving cached user")
			return &SyncResult{User: cached, Stale: true}, nil
		}
		return nil, fmt.Errorf("sync user: %w", err)
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, userKey(uid), user, s.opts.CacheTTL); err != nil {
			s.log.WithError(err).WithField("firebase_uid", uid).Warn("cache synced user")
		}
	}
	return &SyncResult{User: user}, nil
}

// SignOut drops the cached copy of the user.
func (s *UserService) SignOut(ctx context.Context, firebaseUID, idToken string) error {
	uid := strings.TrimSpace(firebaseUID)
	if uid == "" {
		return invalid("firebaseUid", "is required")
	}
	if err := s.authorize(ctx, uid, idToken); err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, userKey(uid))
}

func (s *UserService) authorize(ctx context.Context, uid, idToken string) error {
	if s.verifier == nil {
		return nil
	}
	if idToken == "" {
		return fmt.Errorf("%w: %v", ErrUnauthorized, auth.ErrMissingToken)
	}
	subject, err := s.verifier.VerifySubject(ctx, idToken)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if subject != uid {
		return fmt.Errorf("%w: token subject does not match firebaseUid", ErrUnauthorized)
	}
	return nil
}

func (s *UserService) cachedUser(ctx context.Context, uid string) (*models.User, bool) {
	if s.cache == nil {
		return nil, false
	}
	var user models.User
	hit, err := cache.GetJSON(ctx, s.cache, userKey(uid), &user)
	switch {
	case err != nil:
		metrics.CacheRequests.WithLabelValues("user", "error").Inc()
		s.log.WithError(err).WithField("firebase_uid", uid).Warn("read cached user")
		return nil, false
	case !hit:
		metrics.CacheRequests.WithLabelValues("user", "miss").Inc()
		return nil, false
	}
	metrics.CacheRequests.WithLabelValues("user", "hit").Inc()
	return &user, true
}
