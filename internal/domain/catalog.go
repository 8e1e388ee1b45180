package domain

import "time"

// NamedResource is one entry of the producer/studio/genre style arrays.
type NamedResource struct {
	MalID int    `json:"mal_id"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

type ImageSet struct {
	ImageURL      string `json:"image_url"`
	SmallImageURL string `json:"small_image_url"`
	LargeImageURL string `json:"large_image_url"`
}

type Images struct {
	JPG  ImageSet `json:"jpg"`
	WebP ImageSet `json:"webp"`
}

type Trailer struct {
	YoutubeID *string `json:"youtube_id"`
	URL       *string `json:"url"`
	EmbedURL  *string `json:"embed_url"`
}

type Aired struct {
	From   *string `json:"from"`
	To     *string `json:"to"`
	String string  `json:"string"`
}

type Broadcast struct {
	Day      *string `json:"day"`
	Time     *string `json:"time"`
	Timezone *string `json:"timezone"`
	String   *string `json:"string"`
}

// Record is one catalog entry as returned by the remote API. Optional
// attributes are pointers so that "absent" survives decoding.
type Record struct {
	MalID          int             `json:"mal_id"`
	URL            string          `json:"url"`
	Images         *Images         `json:"images,omitempty"`
	Trailer        *Trailer        `json:"trailer,omitempty"`
	Approved       bool            `json:"approved"`
	Title          string          `json:"title"`
	TitleEnglish   *string         `json:"title_english"`
	TitleJapanese  *string         `json:"title_japanese"`
	Type           AnimeType       `json:"type"`
	Source         *string         `json:"source"`
	Episodes       *int            `json:"episodes"`
	Status         *string         `json:"status"`
	Airing         bool            `json:"airing"`
	Aired          *Aired          `json:"aired,omitempty"`
	Duration       *string         `json:"duration"`
	Rating         *string         `json:"rating"`
	Score          *float64        `json:"score"`
	ScoredBy       *int            `json:"scored_by"`
	Rank           *int            `json:"rank"`
	Popularity     *int            `json:"popularity"`
	Members        *int            `json:"members"`
	Favorites      *int            `json:"favorites"`
	Synopsis       *string         `json:"synopsis"`
	Background     *string         `json:"background"`
	Season         *string         `json:"season"`
	Year           *int            `json:"year"`
	Broadcast      *Broadcast      `json:"broadcast,omitempty"`
	Producers      []NamedResource `json:"producers"`
	Licensors      []NamedResource `json:"licensors"`
	Studios        []NamedResource `json:"studios"`
	Genres         []NamedResource `json:"genres"`
	ExplicitGenres []NamedResource `json:"explicit_genres"`
	Themes         []NamedResource `json:"themes"`
	Demographics   []NamedResource `json:"demographics"`
}

// ScoreOrZero returns the score, treating an absent score as 0.
func (r Record) ScoreOrZero() float64 {
	if r.Score == nil {
		return 0
	}
	return *r.Score
}

// AiredFrom returns the start of airing, or the Unix epoch when the date is
// missing or unparseable.
func (r Record) AiredFrom() time.Time {
	epoch := time.Unix(0, 0).UTC()
	if r.Aired == nil || r.Aired.From == nil || *r.Aired.From == "" {
		return epoch
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, *r.Aired.From); err == nil {
			return t
		}
	}
	return epoch
}

// PageResult is one fetched page of the remote catalog.
type PageResult struct {
	PageNumber int      `json:"page_number"`
	TotalPages int      `json:"total_pages"` // Always >= 1
	Records    []Record `json:"records"`
}
