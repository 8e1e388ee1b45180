package domain

import (
	"fmt"
	"strings"
)

type AnimeType string

func (t AnimeType) String() string {
	return string(t)
}

const (
	AnimeTypeUnset   AnimeType = ""
	AnimeTypeTV      AnimeType = "TV"
	AnimeTypeMovie   AnimeType = "Movie"
	AnimeTypeOVA     AnimeType = "OVA"
	AnimeTypeSpecial AnimeType = "Special"
	AnimeTypeONA     AnimeType = "ONA"
	AnimeTypeMusic   AnimeType = "Music"
)

var AnimeTypes = []AnimeType{
	AnimeTypeTV,
	AnimeTypeMovie,
	AnimeTypeOVA,
	AnimeTypeSpecial,
	AnimeTypeONA,
	AnimeTypeMusic,
}

// ParseAnimeType accepts any of AnimeTypes case-insensitively; "" means unset.
func ParseAnimeType(s string) (AnimeType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AnimeTypeUnset, nil
	}
	for _, t := range AnimeTypes {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return AnimeTypeUnset, fmt.Errorf("unknown anime type %q", s)
}

func (t AnimeType) GetTypeName() string {
	switch t {
	case AnimeTypeTV:
		return "TV series"
	case AnimeTypeMovie:
		return "Movie"
	case AnimeTypeOVA:
		return "Original video animation"
	case AnimeTypeSpecial:
		return "Special"
	case AnimeTypeONA:
		return "Original net animation"
	case AnimeTypeMusic:
		return "Music video"
	default:
		return "Any"
	}
}

type SortField string

func (f SortField) String() string {
	return string(f)
}

const (
	SortFieldTitle     SortField = "title"
	SortFieldScore     SortField = "score"
	SortFieldAiredFrom SortField = "airedFrom"
	SortFieldType      SortField = "type"
)

var SortFields = []SortField{
	SortFieldTitle,
	SortFieldScore,
	SortFieldAiredFrom,
	SortFieldType,
}

func ParseSortField(s string) (SortField, error) {
	for _, f := range SortFields {
		if s == f.String() {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

type SortOrder string

func (o SortOrder) String() string {
	return string(o)
}

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case SortOrderAsc, SortOrderDesc:
		return SortOrder(s), nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// Flip returns the opposite order.
func (o SortOrder) Flip() SortOrder {
	if o == SortOrderAsc {
		return SortOrderDesc
	}
	return SortOrderAsc
}
