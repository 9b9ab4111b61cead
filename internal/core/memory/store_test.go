package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"aurora/internal/core/database"
	"aurora/internal/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ database.Store = (*Store)(nil)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func seeded() *Store {
	s := NewStore()
	s.Now = fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s.AddContent(models.Content{ID: "m1", Slug: "heat", Kind: models.KindMovie, Name: "Heat", Genres: []string{"Crime"}})
	for ep := 1; ep <= 3; ep++ {
		s.AddContent(models.Content{
			ID: fmt.Sprintf("d%d", ep), Slug: "dark", Kind: models.KindSeriesEpisode,
			SeriesName: strPtr("Dark"), Season: strPtr("1"), Episode: intPtr(4 - ep),
			Name: fmt.Sprintf("Dark E%d", 4-ep), Genres: []string{"Drama"},
		})
	}
	s.AddContent(models.Content{ID: "m2", Slug: "alien", Kind: models.KindMovie, Name: "Alien", Genres: []string{"Horror", "crime"}, Featured: true})
	return s
}

func TestListContentsDedupesSeries(t *testing.T) {
	s := seeded()
	rows, total, err := s.ListContents(context.Background(), database.ContentQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, rows, 3)
	assert.Equal(t, "m2", rows[0].ID)
	assert.Equal(t, "d3", rows[1].ID, "newest episode represents the series")
}

func TestListContentsGenreIsCaseInsensitive(t *testing.T) {
	s := seeded()
	rows, total, err := s.ListContents(context.Background(), database.ContentQuery{Genre: "CRIME", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, rows, 2)
}

func TestListCandidatesReturnsRawRows(t *testing.T) {
	s := seeded()
	rows, err := s.ListCandidates(context.Background(), database.ContentQuery{Kind: models.KindSeriesEpisode, Genre: "Crime"}, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestGetContentsBySlugOrdersEpisodes(t *testing.T) {
	s := seeded()
	rows, err := s.GetContentsBySlug(context.Background(), "dark")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, r := range rows {
		assert.Equal(t, i+1, *r.Episode)
	}

	_, err = s.GetContentsBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestGetContentsBySlugOrdersSeasonsNumerically(t *testing.T) {
	s := NewStore()
	for _, season := range []string{"Season 10", "2", "T1", "10"} {
		for ep := 2; ep >= 1; ep-- {
			s.AddContent(models.Content{
				ID: season + fmt.Sprint(ep), Slug: "lost", Kind: models.KindSeriesEpisode,
				Season: strPtr(season), Episode: intPtr(ep), Name: "Lost",
			})
		}
	}
	s.AddContent(models.Content{ID: "special", Slug: "lost", Kind: models.KindSeriesEpisode, Name: "Lost"})

	rows, err := s.GetContentsBySlug(context.Background(), "lost")
	require.NoError(t, err)

	var got []string
	for _, r := range rows {
		got = append(got, r.ID)
	}
	assert.Equal(t, []string{
		"special", "T11", "T12", "21", "22", "101", "102", "Season 101", "Season 102",
	}, got)
}

func TestSliceOffsetRejectsNegativeOffsets(t *testing.T) {
	rows := []models.Content{{ID: "a"}, {ID: "b"}}
	assert.Empty(t, sliceOffset(rows, -10, 10))
	assert.Len(t, sliceOffset(rows, 1, 10), 1)
}

func TestWatchlistUniqueness(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	_, err := s.AddToWatchlist(ctx, "u1", "m1")
	require.NoError(t, err)
	_, err = s.AddToWatchlist(ctx, "u1", "m1")
	assert.ErrorIs(t, err, database.ErrConflict)
	_, err = s.AddToWatchlist(ctx, "u1", "nope")
	assert.ErrorIs(t, err, database.ErrNotFound)

	n, err := s.CountWatchlist(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.RemoveFromWatchlist(ctx, "u1", "m1"))
	require.NoError(t, s.RemoveFromWatchlist(ctx, "u1", "m1"))
	ok, err := s.IsInWatchlist(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpsertProgressKeepsFirstWatched(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	first, err := s.UpsertProgress(ctx, models.ProgressUpdate{UserID: "u1", ContentID: "m1", CurrentT: 60, Duration: 600, ProgressPercent: 10})
	require.NoError(t, err)
	second, err := s.UpsertProgress(ctx, models.ProgressUpdate{UserID: "u1", ContentID: "m1", CurrentT: 300, Duration: 600, ProgressPercent: 50})
	require.NoError(t, err)

	assert.Equal(t, first.FirstWatchedAt, second.FirstWatchedAt)
	assert.True(t, second.LastWatchedAt.After(first.LastWatchedAt))
	assert.Equal(t, 2, second.WatchCount)
	assert.Equal(t, 50, second.ProgressPercent)
}

func TestUpsertUserCreatesPreferencesOnce(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	u1, err := s.UpsertUser(ctx, models.UserSync{FirebaseUID: "fb", Email: "a@example.com", DisplayName: strPtr("Ana")})
	require.NoError(t, err)
	assert.True(t, s.HasPreferences(u1.ID))

	u2, err := s.UpsertUser(ctx, models.UserSync{FirebaseUID: "fb", Email: "b@example.com"})
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)
	assert.Equal(t, "b@example.com", u2.Email)
	require.NotNil(t, u2.DisplayName)
	assert.Equal(t, "Ana", *u2.DisplayName)
}

func TestPendingRequestReopensAfterResolution(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	req, err := s.CreateContentRequest(ctx, models.ContentRequest{UserID: "u1", ContentName: "Matrix", ContentType: models.RequestMovie})
	require.NoError(t, err)
	_, err = s.CreateContentRequest(ctx, models.ContentRequest{UserID: "u1", ContentName: "matrix", ContentType: models.RequestMovie})
	assert.ErrorIs(t, err, database.ErrConflict)

	s.SetRequestStatus(req.ID, models.RequestDone)
	_, err = s.CreateContentRequest(ctx, models.ContentRequest{UserID: "u1", ContentName: "matrix", ContentType: models.RequestMovie})
	assert.NoError(t, err)
}
