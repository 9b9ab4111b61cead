package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"aurora/internal/core/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*DBStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewFromDB(sqlx.NewDb(db, "sqlmock")), mock
}

var created = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func contentRow(id, slug, kind, name string) []driver.Value {
	return []driver.Value{
		id, slug, kind, nil, nil, nil, name, nil,
		int64(1999), int64(136), 8.7, nil, nil, "Wachowski",
		[]byte(`["Keanu Reeves"]`), "{Action,Sci-Fi}", "http://media/1.mp4", true, created, created,
	}
}

func TestTranslate(t *testing.T) {
	assert.Nil(t, translate(nil))

	err := translate(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "watchlist_user_content_key"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "watchlist_user_content_key")

	assert.ErrorIs(t, translate(&pgconn.PgError{Code: foreignKeyViolation}), ErrNotFound)

	other := &pgconn.PgError{Code: "42P01"}
	assert.Same(t, other, translate(other))

	wrapped := fmt.Errorf("query: %w", &pgconn.PgError{Code: uniqueViolation})
	assert.ErrorIs(t, translate(wrapped), ErrConflict)
}

func TestAddToWatchlistDuplicateIsConflict(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`INSERT INTO watchlist`).
		WithArgs("u1", "c1").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "watchlist_user_content_key"})

	_, err := store.AddToWatchlist(context.Background(), "u1", "c1")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddToWatchlistUnknownContentIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`INSERT INTO watchlist`).
		WithArgs("u1", "missing").
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolation})

	_, err := store.AddToWatchlist(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddToWatchlistReturnsEntry(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`INSERT INTO watchlist`).
		WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "content_id", "added_at"}).
			AddRow("w1", "u1", "c1", created))

	entry, err := store.AddToWatchlist(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "w1", entry.ID)
	assert.Equal(t, created, entry.AddedAt)
}

func TestListWatchlistScansJoinedContent(t *testing.T) {
	store, mock := newMockStore(t)
	cols := []string{"id", "user_id", "content_id", "added_at"}
	for _, f := range contentFields {
		cols = append(cols, "content."+f)
	}
	row := append([]driver.Value{"w1", "u1", "c1", created}, contentRow("c1", "the-matrix", "MOVIE", "The Matrix")...)
	mock.ExpectQuery(`FROM watchlist w\s+JOIN contents c`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(row...))

	entries, err := store.ListWatchlist(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Content)
	assert.Equal(t, "The Matrix", entries[0].Content.Name)
	assert.Equal(t, []string{"Action", "Sci-Fi"}, []string(entries[0].Content.Genres))
	assert.Equal(t, "Keanu Reeves", entries[0].Content.Cast[0].Name)
}

func TestGetContentsBySlugEmptyIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM contents c WHERE c.slug = \$1`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(contentFields))

	_, err := store.GetContentsBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetContentsBySlugScansRows(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM contents c WHERE c.slug = \$1`).
		WithArgs("the-matrix").
		WillReturnRows(sqlmock.NewRows(contentFields).AddRow(contentRow("c1", "the-matrix", "MOVIE", "The Matrix")...))

	rows, err := store.GetContentsBySlug(context.Background(), "the-matrix")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.KindMovie, rows[0].Kind)
	require.NotNil(t, rows[0].ReleaseYear)
	assert.Equal(t, 1999, *rows[0].ReleaseYear)
	assert.True(t, rows[0].Featured)
}

func TestListContentsBindsFiltersThenPaging(t *testing.T) {
	store, mock := newMockStore(t)
	q := ContentQuery{Kind: models.KindMovie, Genre: "drama", Search: "ma_trix", Offset: 40, Limit: 20}

	mock.ExpectQuery(`WITH ranked AS .* WHERE series_rank = 1 ORDER BY created_at DESC, id ASC LIMIT \$4 OFFSET \$5`).
		WithArgs("MOVIE", "drama", `%ma\_trix%`, 20, 40).
		WillReturnRows(sqlmock.NewRows(contentFields).AddRow(contentRow("c1", "the-matrix", "MOVIE", "The Matrix")...))
	mock.ExpectQuery(`WITH ranked AS .* SELECT COUNT\(\*\) FROM ranked WHERE series_rank = 1`).
		WithArgs("MOVIE", "drama", `%ma\_trix%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(41))

	rows, total, err := store.ListContents(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 41, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCandidatesIgnoresGenre(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM contents c WHERE c.kind = \$1 ORDER BY c.created_at DESC, c.id ASC LIMIT \$2`).
		WithArgs("SERIES_EPISODE", 1000).
		WillReturnRows(sqlmock.NewRows(contentFields))

	rows, err := store.ListCandidates(context.Background(), ContentQuery{Kind: models.KindSeriesEpisode, Genre: "Drama"}, 1000)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertUserCreatesPreferencesInTransaction(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users .* ON CONFLICT \(firebase_uid\) DO UPDATE`).
		WithArgs("fb-1", "neo@example.com", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "firebase_uid", "email", "display_name", "photo_url", "last_login",
			"is_active", "subscription_tier", "created_at", "updated_at",
		}).AddRow("u1", "fb-1", "neo@example.com", nil, nil, created, true, "free", created, created))
	mock.ExpectExec(`INSERT INTO user_preferences`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := store.UpsertUser(context.Background(), models.UserSync{FirebaseUID: "fb-1", Email: "neo@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "free", user.SubscriptionTier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertUserRollsBackOnPreferenceFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "firebase_uid", "email", "display_name", "photo_url", "last_login",
			"is_active", "subscription_tier", "created_at", "updated_at",
		}).AddRow("u1", "fb-1", "neo@example.com", nil, nil, created, true, "free", created, created))
	mock.ExpectExec(`INSERT INTO user_preferences`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := store.UpsertUser(context.Background(), models.UserSync{FirebaseUID: "fb-1", Email: "neo@example.com"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateContentRequestRaceIsConflict(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`INSERT INTO content_requests`).
		WithArgs("u1", "Matrix", "movie", nil).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "content_requests_pending_name_key"})

	_, err := store.CreateContentRequest(context.Background(), models.ContentRequest{
		UserID: "u1", ContentName: "Matrix", ContentType: models.RequestMovie,
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestHasPendingRequest(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`lower\(content_name\) = lower\(\$2\) AND status = 'pending'`).
		WithArgs("u1", "matrix").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := store.HasPendingRequest(context.Background(), "u1", "matrix")
	require.NoError(t, err)
	assert.True(t, ok)
}
