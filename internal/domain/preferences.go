package domain

import "encoding/json"

const (
	MinScoreLimit = 0.0
	MaxScoreLimit = 10.0
)

// Bound is an optional score bound. The zero value is unset.
type Bound struct {
	Value float64
	Set   bool
}

func NewBound(v float64) Bound {
	return Bound{Value: v, Set: true}
}

func (b Bound) MarshalJSON() ([]byte, error) {
	if !b.Set {
		return []byte("null"), nil
	}
	return json.Marshal(b.Value)
}

func (b *Bound) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*b = Bound{}
		return nil
	}
	*b = NewBound(*v)
	return nil
}

// Preferences is the user-controlled filter/sort/pagination state. It is a
// plain comparable value; transitions live in package viewstate.
type Preferences struct {
	SearchText   string    `json:"searchText"`
	MinScore     Bound     `json:"minScore"`
	MaxScore     Bound     `json:"maxScore"`
	SortField    SortField `json:"sortField"`
	SortOrder    SortOrder `json:"sortOrder"`
	SelectedType AnimeType `json:"selectedType"`
	Page         int       `json:"page"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		SearchText:   "",
		SortField:    SortFieldTitle,
		SortOrder:    SortOrderAsc,
		SelectedType: AnimeTypeUnset,
		Page:         1,
	}
}

// IsDefault reports whether p equals DefaultPreferences.
func (p Preferences) IsDefault() bool {
	return p == DefaultPreferences()
}
