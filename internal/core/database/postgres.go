package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"aurora/internal/core/models"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a uniqueness constraint rejects a write.
	ErrConflict = errors.New("conflict")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// ContentQuery describes a catalog listing. Genre is matched case-insensitively
// against the genre set; Search is a case-insensitive substring of the name or
// series name.
type ContentQuery struct {
	Kind   models.Kind
	Genre  string
	Search string
	Offset int
	Limit  int
}

// Store defines every interaction with the database.
type Store interface {
	// ListContents returns one page of series-deduplicated rows, newest first,
	// together with the deduplicated total.
	ListContents(ctx context.Context, q ContentQuery) ([]models.Content, int, error)
	// ListCandidates returns up to window raw rows, newest first, honouring
	// Kind and Search only.
	ListCandidates(ctx context.Context, q ContentQuery, window int) ([]models.Content, error)
	ListFeatured(ctx context.Context) ([]models.Content, error)
	GetContentsBySlug(ctx context.Context, slug string) ([]models.Content, error)
	ListGenres(ctx context.Context, kind models.Kind) ([]string, error)

	UpsertUser(ctx context.Context, u models.UserSync) (*models.User, error)

	ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
	AddToWatchlist(ctx context.Context, userID, contentID string) (*models.WatchlistEntry, error)
	RemoveFromWatchlist(ctx context.Context, userID, contentID string) error
	IsInWatchlist(ctx context.Context, userID, contentID string) (bool, error)
	CountWatchlist(ctx context.Context, userID string) (int, error)

	UpsertProgress(ctx context.Context, p models.ProgressUpdate) (*models.WatchHistoryEntry, error)
	ListContinueWatching(ctx context.Context, userID string, limit int) ([]models.WatchHistoryEntry, error)
	ListHistoryStats(ctx context.Context, userID string) ([]models.HistoryStatRow, error)

	ListContentRequests(ctx context.Context, userID string) ([]models.ContentRequest, error)
	HasPendingRequest(ctx context.Context, userID, contentName string) (bool, error)
	CreateContentRequest(ctx context.Context, req models.ContentRequest) (*models.ContentRequest, error)

	Ping(ctx context.Context) error
}

// DBStore implements Store on PostgreSQL.
type DBStore struct {
	db *sqlx.DB
}

// NewDBStore connects to databaseURL and sizes the pool.
func NewDBStore(databaseURL string) (*DBStore, error) {
	db, err := sqlx.Connect("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &DBStore{db: db}, nil
}

// NewFromDB wraps an existing handle.
func NewFromDB(db *sqlx.DB) *DBStore {
	return &DBStore{db: db}
}

// Ping checks the connection.
func (s *DBStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the pool.
func (s *DBStore) Close() error {
	return s.db.Close()
}

// translate maps driver errors onto the package sentinels. A foreign key
// violation means the referenced user or content does not exist.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case foreignKeyViolation:
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}
