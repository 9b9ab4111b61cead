package database

import (
	"context"
	"fmt"
	"strings"

	"aurora/internal/catalog"
	"aurora/internal/core/models"
)

var contentFields = []string{
	"id", "slug", "kind", "series_name", "season", "episode", "name", "synopsis",
	"release_year", "runtime_minutes", "rating", "poster_url", "banner_url", "director",
	"cast_members", "genres", "media_url", "featured", "created_at", "updated_at",
}

// columns renders the content column list, optionally qualified by a table
// alias and aliased under a struct prefix for sqlx nested scanning.
func columns(alias, prefix string) string {
	parts := make([]string, len(contentFields))
	for i, f := range contentFields {
		col := f
		if alias != "" {
			col = alias + "." + f
		}
		if prefix != "" {
			col = fmt.Sprintf(`%s AS "%s.%s"`, col, prefix, f)
		}
		parts[i] = col
	}
	return strings.Join(parts, ", ")
}

// seriesRank numbers rows within one series key, newest first, so that rank 1
// is the representative the catalog shows. Movies form singleton partitions.
const seriesRank = `row_number() OVER (
	PARTITION BY CASE WHEN c.kind = 'SERIES_EPISODE'
		THEN 's:' || COALESCE(NULLIF(c.series_name, ''), c.name)
		ELSE 'm:' || c.id::text END
	ORDER BY c.created_at DESC, c.id ASC)`

// contentFilter builds the WHERE clause for q. The genre condition is only
// emitted when withGenre is set.
func contentFilter(q ContentQuery, withGenre bool) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argID := 1

	if q.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("c.kind = $%d", argID))
		args = append(args, string(q.Kind))
		argID++
	}

	if withGenre && q.Genre != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(c.genres) AS g(name) WHERE lower(g.name) = lower($%d))", argID))
		args = append(args, q.Genre)
		argID++
	}

	if q.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE $%d OR c.series_name ILIKE $%d)", argID, argID))
		args = append(args, "%"+catalog.EscapeLike(q.Search)+"%")
		argID++
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ListContents filters, deduplicates series and paginates in one query, then counts the deduplicated matches.
func (s *DBStore) ListContents(ctx context.Context, q ContentQuery) ([]models.Content, int, error) {
	where, args := contentFilter(q, true)
	ranked := "SELECT " + columns("c", "") + ", " + seriesRank + " AS series_rank FROM contents c" + where

	pageQuery := fmt.Sprintf(
		"WITH ranked AS (%s) SELECT %s FROM ranked WHERE series_rank = 1 ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d",
		ranked, columns("", ""), len(args)+1, len(args)+2)
	pageArgs := make([]interface{}, 0, len(args)+2)
	pageArgs = append(pageArgs, args...)
	pageArgs = append(pageArgs, q.Limit, q.Offset)

	contents := []models.Content{}
	if err := s.db.SelectContext(ctx, &contents, pageQuery, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("list contents: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("WITH ranked AS (%s) SELECT COUNT(*) FROM ranked WHERE series_rank = 1", ranked)
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count contents: %w", err)
	}
	return contents, total, nil
}

// ListCandidates returns up to window raw rows, newest first. Genre is not applied.
func (s *DBStore) ListCandidates(ctx context.Context, q ContentQuery, window int) ([]models.Content, error) {
	where, args := contentFilter(q, false)
	query := fmt.Sprintf("SELECT %s FROM contents c%s ORDER BY c.created_at DESC, c.id ASC LIMIT $%d",
		columns("c", ""), where, len(args)+1)
	args = append(args, window)

	contents := []models.Content{}
	if err := s.db.SelectContext(ctx, &contents, query, args...); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return contents, nil
}

// ListFeatured returns featured rows, newest first.
func (s *DBStore) ListFeatured(ctx context.Context) ([]models.Content, error) {
	query := "SELECT " + columns("c", "") + " FROM contents c WHERE c.featured = TRUE ORDER BY c.created_at DESC, c.id ASC"
	contents := []models.Content{}
	if err := s.db.SelectContext(ctx, &contents, query); err != nil {
		return nil, fmt.Errorf("list featured: %w", err)
	}
	return contents, nil
}

// GetContentsBySlug returns every row sharing slug, ordered by season then
// episode. Seasons are free text; their numeric part orders first.
func (s *DBStore) GetContentsBySlug(ctx context.Context, slug string) ([]models.Content, error) {
	query := "SELECT " + columns("c", "") + ` FROM contents c WHERE c.slug = $1
		ORDER BY NULLIF(regexp_replace(c.season, '\D', '', 'g'), '')::int ASC NULLS FIRST,
			c.season ASC NULLS FIRST, c.episode ASC NULLS FIRST, c.created_at ASC`
	contents := []models.Content{}
	if err := s.db.SelectContext(ctx, &contents, query, slug); err != nil {
		return nil, fmt.Errorf("get contents by slug: %w", err)
	}
	if len(contents) == 0 {
		return nil, ErrNotFound
	}
	return contents, nil
}

// ListGenres returns the distinct genres, sorted byte-wise in Go so the order
// does not depend on the database collation.
func (s *DBStore) ListGenres(ctx context.Context, kind models.Kind) ([]string, error) {
	query := "SELECT DISTINCT g.name FROM contents c, unnest(c.genres) AS g(name) WHERE g.name <> ''"
	var args []interface{}
	if kind != "" {
		query += " AND c.kind = $1"
		args = append(args, string(kind))
	}
	var genres []string
	if err := s.db.SelectContext(ctx, &genres, query, args...); err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return catalog.DistinctGenres(genres), nil
}
