package services

import (
	"context"
	"testing"
	"time"

	"aurora/internal/core/database"
	"aurora/internal/core/memory"
	"aurora/internal/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeProgress(t *testing.T) {
	cases := []struct {
		current, duration float64
		pct               int
		completed         bool
	}{
		{2700, 6000, 45, false},
		{5460, 6000, 91, true},
		{5373, 6000, 90, true}, // 89.55 rounds up
		{5369, 6000, 89, false},
		{7000, 6000, 100, true},
		{-10, 6000, 0, false},
	}
	for _, tc := range cases {
		pct, completed := ComputeProgress(tc.current, tc.duration)
		assert.Equal(t, tc.pct, pct, "%v/%v", tc.current, tc.duration)
		assert.Equal(t, tc.completed, completed, "%v/%v", tc.current, tc.duration)
	}
}

func newHistory(t *testing.T) (*HistoryService, *memory.Store, *time.Time) {
	t.Helper()
	store := memory.NewStore()
	now := epoch
	store.Now = func() time.Time { return now }
	seedCatalog(t, store)
	return NewHistoryService(store, quietLog()), store, &now
}

func TestReportProgress(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newHistory(t)

	entry, err := svc.Report(ctx, ProgressReport{UserID: userA, ContentID: id(1), CurrentT: 2700, Duration: 6000})
	require.NoError(t, err)
	assert.Equal(t, 45, entry.ProgressPercent)
	assert.False(t, entry.Completed)

	entry, err = svc.Report(ctx, ProgressReport{UserID: userA, ContentID: id(1), CurrentT: 5460, Duration: 6000})
	require.NoError(t, err)
	assert.Equal(t, 91, entry.ProgressPercent)
	assert.True(t, entry.Completed)
	assert.Equal(t, 2, entry.WatchCount)

	entry, err = svc.Report(ctx, ProgressReport{UserID: userA, ContentID: id(2), CurrentT: 4, Duration: 6000})
	require.NoError(t, err)
	assert.Nil(t, entry)
	_, exists := store.HistoryEntry(userA, id(2))
	assert.False(t, exists)

	entry, err = svc.Report(ctx, ProgressReport{UserID: userA, ContentID: id(2), CurrentT: 30, Duration: 0})
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestReportKeepsFirstWatchedAt(t *testing.T) {
	ctx := context.Background()
	svc, store, now := newHistory(t)

	_, err := svc.Report(ctx, ProgressReport{UserID: userA, ContentID: id(3), CurrentT: 60, Duration: 600})
	require.NoError(t, err)
	*now = now.Add(time.Hour)
	_, err = svc.Report(ctx, ProgressReport{UserID: userA, ContentID: id(3), CurrentT: 120, Duration: 600})
	require.NoError(t, err)

	e, ok := store.HistoryEntry(userA, id(3))
	require.True(t, ok)
	assert.Equal(t, epoch, e.FirstWatchedAt)
	assert.Equal(t, epoch.Add(time.Hour), e.LastWatchedAt)
	assert.Equal(t, 2, e.WatchCount)
	assert.Equal(t, 20, e.ProgressPercent)
}

func TestReportValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newHistory(t)

	_, err := svc.Report(ctx, ProgressReport{UserID: "", ContentID: id(1), CurrentT: 10, Duration: 100})
	assert.True(t, IsValidation(err))
	_, err = svc.Report(ctx, ProgressReport{UserID: userA, ContentID: "nope", CurrentT: 10, Duration: 100})
	assert.True(t, IsValidation(err))

	_, err = svc.Report(ctx, ProgressReport{UserID: userA, ContentID: id(999), CurrentT: 10, Duration: 100})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestContinueWatching(t *testing.T) {
	ctx := context.Background()
	svc, _, now := newHistory(t)

	report := func(content string, current float64) {
		t.Helper()
		*now = now.Add(time.Minute)
		_, err := svc.Report(ctx, ProgressReport{UserID: userA, ContentID: content, CurrentT: current, Duration: 1000})
		require.NoError(t, err)
	}
	report(id(1), 100) // 10%
	report(id(2), 950) // completed
	report(id(3), 500) // 50%
	report(id(4), 20)  // 2%
	_, err := svc.Report(ctx, ProgressReport{UserID: userB, ContentID: id(5), CurrentT: 500, Duration: 1000})
	require.NoError(t, err)

	entries, err := svc.ContinueWatching(ctx, userA, 0)
	require.NoError(t, err)
	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.ContentID
		require.NotNil(t, e.Content)
	}
	assert.Equal(t, []string{id(4), id(3), id(1)}, got)

	entries, err = svc.ContinueWatching(ctx, userA, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestComputeStats(t *testing.T) {
	rows := []models.HistoryStatRow{
		{ContentID: "m1", ContentKind: models.KindMovie, Duration: 7200, ProgressPercent: 100},
		{ContentID: "m2", ContentKind: models.KindMovie, Duration: 3600, ProgressPercent: 10},
		{ContentID: "e1", ContentKind: models.KindSeriesEpisode, Duration: 3600, ProgressPercent: 50},
		{ContentID: "e1", ContentKind: models.KindSeriesEpisode, Duration: 3600, ProgressPercent: 50},
		{ContentID: "gone", ContentKind: "", Duration: 36000, ProgressPercent: 100},
	}
	stats := ComputeStats(rows, 4)
	assert.Equal(t, models.Stats{
		MoviesWatched: 1,
		SeriesWatched: 1,
		// 7200 + 360 + 1800 + 1800 seconds
		TotalHours:   3,
		SavedContent: 4,
	}, stats)

	assert.Equal(t, models.Stats{}, ComputeStats(nil, 0))
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newHistory(t)

	_, err := svc.Report(ctx, ProgressReport{UserID: userA, ContentID: id(1), CurrentT: 5400, Duration: 5400})
	require.NoError(t, err)
	_, err = svc.Report(ctx, ProgressReport{UserID: userA, ContentID: id(2), CurrentT: 1800, Duration: 3600})
	require.NoError(t, err)
	_, err = store.AddToWatchlist(ctx, userA, id(5))
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, userA)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MoviesWatched)
	assert.Equal(t, 1, stats.SeriesWatched)
	assert.Equal(t, 2, stats.TotalHours)
	assert.Equal(t, 1, stats.SavedContent)

	_, err = svc.Stats(ctx, "x")
	assert.True(t, IsValidation(err))
}
