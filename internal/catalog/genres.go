package catalog

import (
	"sort"

	"aurora/internal/core/models"
)

// GroupByGenre buckets deduplicated contents under each of their genres,
// keeping at most perGenre items per bucket in input order. The returned
// name list holds every distinct genre sorted ascending; the map only keeps
// the first maxGenres of them. maxGenres <= 0 keeps all.
func GroupByGenre(contents []models.Content, perGenre, maxGenres int) (map[string][]models.Content, []string) {
	buckets := make(map[string][]models.Content)
	for _, c := range Dedupe(contents) {
		seen := make(map[string]struct{}, len(c.Genres))
		for _, g := range c.Genres {
			if g == "" {
				continue
			}
			if _, dup := seen[g]; dup {
				continue
			}
			seen[g] = struct{}{}
			if _, ok := buckets[g]; !ok {
				buckets[g] = []models.Content{}
			}
			if len(buckets[g]) < perGenre {
				buckets[g] = append(buckets[g], c)
			}
		}
	}

	names := make([]string, 0, len(buckets))
	for g := range buckets {
		names = append(names, g)
	}
	sort.Strings(names)

	if maxGenres <= 0 || maxGenres >= len(names) {
		return buckets, names
	}
	top := make(map[string][]models.Content, maxGenres)
	for _, g := range names[:maxGenres] {
		top[g] = buckets[g]
	}
	return top, names
}

// DistinctGenres returns the sorted set of non-empty genre names.
func DistinctGenres(genres []string) []string {
	set := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		if g != "" {
			set[g] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
