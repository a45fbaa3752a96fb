package calendar

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SearchResult is one holiday matched by title.
type SearchResult struct {
	Title        string   `json:"title"`
	Category     Category `json:"category"`
	Date         string   `json:"date,omitempty"` // "MM-DD" for fixed entries
	Movable      bool     `json:"movable,omitempty"`
	EasterOffset *int     `json:"easter_offset,omitempty"`
}

// normalizeTitle lowercases a title and strips combining marks, so queries
// match regardless of case, accents or "ё"/"е" spelling.
func normalizeTitle(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	result = strings.ToLower(result)
	return strings.ReplaceAll(result, "ё", "е")
}

// FindHolidays returns every fixed holiday, movable feast and saint day whose
// title contains the query (normalized substring match). Results come in a
// deterministic order: fixed holidays by date, movable feasts by Easter
// offset, saint days by date.
func (s *Service) FindHolidays(query string) []SearchResult {
	q := normalizeTitle(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var results []SearchResult

	fixed := make([]Holiday, 0, len(s.data.Holidays))
	for _, h := range s.data.Holidays {
		if !h.Movable && strings.Contains(normalizeTitle(h.Title), q) {
			fixed = append(fixed, h)
		}
	}
	sort.Slice(fixed, func(i, j int) bool { return fixed[i].Date < fixed[j].Date })
	for _, h := range fixed {
		results = append(results, SearchResult{Title: h.Title, Category: h.Category, Date: h.Date})
	}

	offsets := make([]int, 0, len(movableFeasts))
	for off := range movableFeasts {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)
	for _, off := range offsets {
		feast := movableFeasts[off]
		if strings.Contains(normalizeTitle(feast.Title), q) {
			o := off
			results = append(results, SearchResult{
				Title:        feast.Title,
				Category:     feast.Category,
				Movable:      true,
				EasterOffset: &o,
			})
		}
	}

	saintKeys := make([]string, 0, len(s.data.SaintDays))
	for key := range s.data.SaintDays {
		saintKeys = append(saintKeys, key)
	}
	sort.Strings(saintKeys)
	for _, key := range saintKeys {
		name := s.data.SaintDays[key]
		if strings.Contains(normalizeTitle(name), q) {
			results = append(results, SearchResult{Title: name, Category: CategorySaint, Date: key})
		}
	}

	return results
}
