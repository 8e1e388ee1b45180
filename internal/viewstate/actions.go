package viewstate

import (
	"math"

	"anime/catalog/internal/domain"
)

// Action is a pure preference transition.
type Action func(domain.Preferences) domain.Preferences

// Apply folds actions over p in order.
func Apply(p domain.Preferences, actions ...Action) domain.Preferences {
	for _, action := range actions {
		if action != nil {
			p = action(p)
		}
	}
	return p
}

func SetSearchText(text string) Action {
	return func(p domain.Preferences) domain.Preferences {
		p.SearchText = text
		return p
	}
}

// SetMinScore clamps v to the score range and raises the max bound when it
// would fall below the new min.
func SetMinScore(v float64) Action {
	return func(p domain.Preferences) domain.Preferences {
		if math.IsNaN(v) {
			return p
		}
		v = clampScore(v)
		p.MinScore = domain.NewBound(v)
		if p.MaxScore.Set && v > p.MaxScore.Value {
			p.MaxScore = domain.NewBound(v)
		}
		return p
	}
}

// SetMaxScore clamps v to the score range and lowers the min bound when it
// would rise above the new max.
func SetMaxScore(v float64) Action {
	return func(p domain.Preferences) domain.Preferences {
		if math.IsNaN(v) {
			return p
		}
		v = clampScore(v)
		p.MaxScore = domain.NewBound(v)
		if p.MinScore.Set && v < p.MinScore.Value {
			p.MinScore = domain.NewBound(v)
		}
		return p
	}
}

func ClearMinScore() Action {
	return func(p domain.Preferences) domain.Preferences {
		p.MinScore = domain.Bound{}
		return p
	}
}

func ClearMaxScore() Action {
	return func(p domain.Preferences) domain.Preferences {
		p.MaxScore = domain.Bound{}
		return p
	}
}

// SelectType sets the type filter; domain.AnimeTypeUnset clears it.
func SelectType(t domain.AnimeType) Action {
	return func(p domain.Preferences) domain.Preferences {
		p.SelectedType = t
		return p
	}
}

// ToggleSort flips the order when field is already the sort field, otherwise
// switches to field in ascending order. Unknown fields are ignored.
func ToggleSort(field domain.SortField) Action {
	return func(p domain.Preferences) domain.Preferences {
		if _, err := domain.ParseSortField(field.String()); err != nil {
			return p
		}
		if p.SortField == field {
			p.SortOrder = p.SortOrder.Flip()
			return p
		}
		p.SortField = field
		p.SortOrder = domain.SortOrderAsc
		return p
	}
}

// SetPage moves to page n, floored at 1.
func SetPage(n int) Action {
	return func(p domain.Preferences) domain.Preferences {
		p.Page = max(1, n)
		return p
	}
}

// NextPage advances one page, saturating at math.MaxInt.
func NextPage() Action {
	return func(p domain.Preferences) domain.Preferences {
		if p.Page < math.MaxInt {
			p.Page++
		}
		p.Page = max(1, p.Page)
		return p
	}
}

func PrevPage() Action {
	return func(p domain.Preferences) domain.Preferences {
		p.Page = max(1, p.Page-1)
		return p
	}
}

// Reset restores every preference to its default in one step.
func Reset() Action {
	return func(domain.Preferences) domain.Preferences {
		return domain.DefaultPreferences()
	}
}

func clampScore(v float64) float64 {
	return min(domain.MaxScoreLimit, max(domain.MinScoreLimit, v))
}
