package catalog

import (
	"strings"
	"unicode"

	"aurora/internal/core/models"
)

// HasGenre reports whether c lists genre, ignoring case.
func HasGenre(c models.Content, genre string) bool {
	for _, g := range c.Genres {
		if strings.EqualFold(g, genre) {
			return true
		}
	}
	return false
}

// FilterGenre keeps the contents that list genre, ignoring case.
func FilterGenre(contents []models.Content, genre string) []models.Content {
	out := make([]models.Content, 0, len(contents))
	for _, c := range contents {
		if HasGenre(c, genre) {
			out = append(out, c)
		}
	}
	return out
}

// MatchesSearch reports whether the name or series name contains term, ignoring case.
func MatchesSearch(c models.Content, term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(c.Name), term) {
		return true
	}
	return c.SeriesName != nil && strings.Contains(strings.ToLower(*c.SeriesName), term)
}

// SafeGenre reports whether the store can evaluate a genre filter itself.
// Anything beyond letters, digits, spaces, hyphens and apostrophes is
// filtered in-process instead.
func SafeGenre(genre string) bool {
	if strings.TrimSpace(genre) == "" {
		return false
	}
	for _, r := range genre {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case r == ' ', r == '-', r == '\'':
		default:
			return false
		}
	}
	return true
}

// Offset converts a 1-based page into a row offset.
func Offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

// Page slices one page out of an already ordered list.
func Page(contents []models.Content, page, limit int) []models.Content {
	start := Offset(page, limit)
	if start < 0 || start >= len(contents) || limit <= 0 {
		return []models.Content{}
	}
	end := len(contents)
	if limit < end-start {
		end = start + limit
	}
	return contents[start:end]
}

// EscapeLike escapes LIKE metacharacters so term matches literally.
func EscapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}
