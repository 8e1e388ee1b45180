package viewstate

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"anime/catalog/internal/domain"
)

const (
	KeyPage         = "page"
	KeySearchText   = "searchText"
	KeyMinScore     = "minScore"
	KeyMaxScore     = "maxScore"
	KeySortField    = "sortField"
	KeySortOrder    = "sortOrder"
	KeySelectedType = "selectedType"
)

// Keys lists every persisted preference key.
var Keys = []string{
	KeyPage,
	KeySearchText,
	KeyMinScore,
	KeyMaxScore,
	KeySortField,
	KeySortOrder,
	KeySelectedType,
}

// EncodeStorage serializes p for the key/value persistence surface, one key
// per field. Unset bounds and filters are stored as empty strings.
func EncodeStorage(p domain.Preferences) map[string]string {
	return map[string]string{
		KeyPage:         strconv.Itoa(p.Page),
		KeySearchText:   p.SearchText,
		KeyMinScore:     formatBound(p.MinScore),
		KeyMaxScore:     formatBound(p.MaxScore),
		KeySortField:    p.SortField.String(),
		KeySortOrder:    p.SortOrder.String(),
		KeySelectedType: p.SelectedType.String(),
	}
}

// DecodeStorage restores preferences from stored values. Missing keys keep
// their defaults; malformed keys also keep their defaults and are reported in
// the returned error without aborting the other fields.
func DecodeStorage(values map[string]string) (domain.Preferences, error) {
	return decode(domain.DefaultPreferences(), func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	})
}

// EncodeQuery serializes p for the address/query representation.
func EncodeQuery(p domain.Preferences) url.Values {
	q := make(url.Values, len(Keys))
	for k, v := range EncodeStorage(p) {
		q.Set(k, v)
	}
	return q
}

// DecodeQuery overlays the preference keys present in q onto base.
func DecodeQuery(base domain.Preferences, q url.Values) (domain.Preferences, error) {
	return decode(base, func(key string) (string, bool) {
		if !q.Has(key) {
			return "", false
		}
		return q.Get(key), true
	})
}

// HasPreferences reports whether q names at least one preference key.
func HasPreferences(q url.Values) bool {
	for _, key := range Keys {
		if q.Has(key) {
			return true
		}
	}
	return false
}

func decode(p domain.Preferences, lookup func(string) (string, bool)) (domain.Preferences, error) {
	var errs []error
	field := func(key string, parse func(string) error) {
		raw, ok := lookup(key)
		if !ok {
			return
		}
		if err := parse(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	field(KeyPage, func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		if n < 1 {
			return fmt.Errorf("page %d is below 1", n)
		}
		p.Page = n
		return nil
	})
	field(KeySearchText, func(s string) error {
		p.SearchText = s
		return nil
	})
	field(KeyMinScore, func(s string) error {
		b, err := parseBound(s)
		if err != nil {
			return err
		}
		p.MinScore = b
		return nil
	})
	field(KeyMaxScore, func(s string) error {
		b, err := parseBound(s)
		if err != nil {
			return err
		}
		p.MaxScore = b
		return nil
	})
	field(KeySortField, func(s string) error {
		f, err := domain.ParseSortField(s)
		if err != nil {
			return err
		}
		p.SortField = f
		return nil
	})
	field(KeySortOrder, func(s string) error {
		o, err := domain.ParseSortOrder(s)
		if err != nil {
			return err
		}
		p.SortOrder = o
		return nil
	})
	field(KeySelectedType, func(s string) error {
		t, err := domain.ParseAnimeType(s)
		if err != nil {
			return err
		}
		p.SelectedType = t
		return nil
	})

	if p.MinScore.Set && p.MaxScore.Set && p.MinScore.Value > p.MaxScore.Value {
		errs = append(errs, fmt.Errorf("%s %v exceeds %s %v, raising %s",
			KeyMinScore, p.MinScore.Value, KeyMaxScore, p.MaxScore.Value, KeyMaxScore))
		p.MaxScore = p.MinScore
	}

	return p, errors.Join(errs...)
}

func formatBound(b domain.Bound) string {
	if !b.Set {
		return ""
	}
	return strconv.FormatFloat(b.Value, 'f', -1, 64)
}

func parseBound(s string) (domain.Bound, error) {
	if s == "" {
		return domain.Bound{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Bound{}, err
	}
	if math.IsNaN(v) {
		return domain.Bound{}, errors.New("score is not a number")
	}
	return domain.NewBound(clampScore(v)), nil
}
