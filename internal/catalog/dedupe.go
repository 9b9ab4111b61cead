// Package catalog holds the pure list processing applied to catalog rows:
// series deduplication, genre grouping and in-process filtering/paging.
package catalog

import "aurora/internal/core/models"

// Dedupe collapses series episodes into one representative per series key.
// The first episode seen wins and keeps its position; movies are keyed by id.
// The input slice is not modified.
func Dedupe(contents []models.Content) []models.Content {
	if len(contents) == 0 {
		return contents
	}
	seenSeries := make(map[string]struct{}, len(contents))
	seenIDs := make(map[string]struct{}, len(contents))
	out := make([]models.Content, 0, len(contents))
	for _, c := range contents {
		if c.Kind == models.KindSeriesEpisode {
			key := c.SeriesKey()
			if _, ok := seenSeries[key]; ok {
				continue
			}
			seenSeries[key] = struct{}{}
		} else {
			if _, ok := seenIDs[c.ID]; ok {
				continue
			}
			seenIDs[c.ID] = struct{}{}
		}
		out = append(out, c)
	}
	return out
}
