package services

import (
	"fmt"
	"io"
	"testing"
	"time"

	"aurora/internal/core/memory"
	"aurora/internal/core/models"

	"github.com/sirupsen/logrus"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func id(n int) string {
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
}

const (
	userA = "10000000-0000-0000-0000-000000000001"
	userB = "10000000-0000-0000-0000-000000000002"
)

// seedCatalog adds 24 rows, newest last: even rows are movies, odd rows are
// episodes of series S0, S1 and S2. Every row is "Sci-Fi & Fantasy"; every
// fourth movie is also "Drama". Deduplicated, that is 12 movies and 3 series.
func seedCatalog(t *testing.T, s *memory.Store) {
	t.Helper()
	for i := 0; i < 24; i++ {
		c := models.Content{
			ID:        id(i + 1),
			CreatedAt: epoch.Add(time.Duration(i) * time.Minute),
			Genres:    []string{"Sci-Fi & Fantasy"},
		}
		if i%2 == 0 {
			c.Kind = models.KindMovie
			c.Name = fmt.Sprintf("Movie %d", i)
			c.Slug = fmt.Sprintf("movie-%d", i)
			if i%4 == 0 {
				c.Genres = append(c.Genres, "Drama")
			}
		} else {
			series := fmt.Sprintf("S%d", i%3)
			ep := i
			c.Kind = models.KindSeriesEpisode
			c.SeriesName = &series
			c.Name = fmt.Sprintf("%s E%d", series, i)
			c.Slug = "series-" + series
			c.Episode = &ep
		}
		s.AddContent(c)
	}
}

func contentIDs(contents []models.Content) []string {
	out := make([]string, len(contents))
	for i, c := range contents {
		out[i] = c.ID
	}
	return out
}
