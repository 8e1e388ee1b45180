package viewstate

import (
	"cmp"
	"slices"
	"strings"

	"anime/catalog/internal/domain"
)

// Matches reports whether r passes every active filter in p.
func Matches(r domain.Record, p domain.Preferences) bool {
	if p.SearchText != "" && !strings.Contains(strings.ToLower(r.Title), strings.ToLower(p.SearchText)) {
		return false
	}

	score := r.ScoreOrZero()
	if p.MinScore.Set && score < p.MinScore.Value {
		return false
	}
	if p.MaxScore.Set && score > p.MaxScore.Value {
		return false
	}

	if p.SelectedType != domain.AnimeTypeUnset && r.Type != p.SelectedType {
		return false
	}
	return true
}

// Derive returns the filtered and sorted view of records. The input slice is
// never modified.
func Derive(records []domain.Record, p domain.Preferences) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if Matches(r, p) {
			out = append(out, r)
		}
	}

	slices.SortStableFunc(out, func(a, b domain.Record) int {
		c := Compare(a, b, p.SortField)
		if p.SortOrder == domain.SortOrderDesc {
			return -c
		}
		return c
	})
	return out
}

// Compare orders two records by field in ascending order.
func Compare(a, b domain.Record, field domain.SortField) int {
	if field == domain.SortFieldAiredFrom {
		return a.AiredFrom().Compare(b.AiredFrom())
	}
	return sortKeyOf(a, field).compare(sortKeyOf(b, field))
}

// sortKey is either numeric or textual. Absent and zero-valued attributes
// (empty title, empty type, missing or 0 score) all collapse to numeric 0, so
// a missing score and a score of 0 are indistinguishable when sorting.
type sortKey struct {
	num    float64
	text   string
	isText bool
}

func sortKeyOf(r domain.Record, field domain.SortField) sortKey {
	switch field {
	case domain.SortFieldTitle:
		if r.Title != "" {
			return sortKey{text: r.Title, isText: true}
		}
	case domain.SortFieldType:
		if r.Type != domain.AnimeTypeUnset {
			return sortKey{text: r.Type.String(), isText: true}
		}
	case domain.SortFieldScore:
		return sortKey{num: r.ScoreOrZero()}
	}
	return sortKey{}
}

// Numeric keys sort before textual ones so that a mixed column still has a
// total order; treating mixed pairs as equal would leave them in fetch order.
func (k sortKey) compare(o sortKey) int {
	switch {
	case k.isText && o.isText:
		return strings.Compare(k.text, o.text)
	case k.isText:
		return 1
	case o.isText:
		return -1
	default:
		return cmp.Compare(k.num, o.num)
	}
}
