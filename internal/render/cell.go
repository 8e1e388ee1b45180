package render

import (
	"fmt"
	"strconv"
	"strings"

	"anime/catalog/internal/domain"
)

const (
	Placeholder        = "N/A"
	EmptyResult        = "No data"
	TrailerUnavailable = "Trailer unavailable"
	TrailerLabel       = "Watch Trailer"

	youtubeWatchURL = "https://www.youtube.com/watch?v="
)

type CellKind string

const (
	KindText  CellKind = "text"
	KindLines CellKind = "lines"
	KindLink  CellKind = "link"
	KindImage CellKind = "image"
)

// Cell is one rendered value. Front ends decide how a link or an image is
// shown; String gives the plain text form.
type Cell struct {
	Kind  CellKind `json:"kind"`
	Text  string   `json:"text,omitempty"`
	Lines []string `json:"lines,omitempty"`
	URL   string   `json:"url,omitempty"`
}

func (c Cell) String() string {
	switch c.Kind {
	case KindLines:
		return strings.Join(c.Lines, "\n")
	case KindImage:
		if c.URL == "" {
			return Placeholder
		}
		return c.URL
	default:
		return c.Text
	}
}

// Strategy renders one attribute of a record.
type Strategy func(domain.Record) Cell

func textCell(s string) Cell {
	if s == "" {
		s = Placeholder
	}
	return Cell{Kind: KindText, Text: s}
}

// Text renders an optional string attribute.
func Text(get func(domain.Record) *string) Strategy {
	return func(r domain.Record) Cell {
		if v := get(r); v != nil {
			return textCell(*v)
		}
		return textCell("")
	}
}

// Number renders an optional integer attribute.
func Number(get func(domain.Record) *int) Strategy {
	return func(r domain.Record) Cell {
		if v := get(r); v != nil {
			return textCell(strconv.Itoa(*v))
		}
		return textCell("")
	}
}

// Flag renders a boolean as Yes or No.
func Flag(get func(domain.Record) bool) Strategy {
	return func(r domain.Record) Cell {
		if get(r) {
			return textCell("Yes")
		}
		return textCell("No")
	}
}

// Names joins the names of a producer-like array with ", ".
func Names(get func(domain.Record) []domain.NamedResource) Strategy {
	return func(r domain.Record) Cell {
		items := get(r)
		names := make([]string, 0, len(items))
		for _, item := range items {
			names = append(names, item.Name)
		}
		return textCell(strings.Join(names, ", "))
	}
}

// Link renders a URL attribute as a link labelled with itself.
func Link(get func(domain.Record) string) Strategy {
	return func(r domain.Record) Cell {
		u := get(r)
		if u == "" {
			return textCell("")
		}
		return Cell{Kind: KindLink, Text: u, URL: u}
	}
}

func renderID(r domain.Record) Cell {
	return textCell(strconv.Itoa(r.MalID))
}

func renderTitle(r domain.Record) Cell {
	lines := []string{
		orPlaceholder(r.Title),
		"English title: " + orPlaceholder(deref(r.TitleEnglish)),
		"Original title: " + orPlaceholder(deref(r.TitleJapanese)),
	}
	return Cell{Kind: KindLines, Lines: lines}
}

func renderType(r domain.Record) Cell {
	return textCell(r.Type.String())
}

func renderScore(r domain.Record) Cell {
	if r.Score == nil {
		return textCell("")
	}
	return textCell(strconv.FormatFloat(*r.Score, 'f', 2, 64))
}

func renderAired(r domain.Record) Cell {
	if r.Aired == nil {
		return textCell("")
	}
	return textCell(r.Aired.String)
}

func renderBroadcast(r domain.Record) Cell {
	if r.Broadcast == nil {
		return textCell("")
	}
	return textCell(deref(r.Broadcast.String))
}

func renderImage(r domain.Record) Cell {
	if r.Images == nil || r.Images.JPG.ImageURL == "" {
		return textCell("")
	}
	return Cell{Kind: KindImage, Text: r.Title, URL: r.Images.JPG.ImageURL}
}

func renderTrailer(r domain.Record) Cell {
	if r.Trailer == nil || r.Trailer.YoutubeID == nil || *r.Trailer.YoutubeID == "" {
		return textCell(TrailerUnavailable)
	}
	return Cell{Kind: KindLink, Text: TrailerLabel, URL: youtubeWatchURL + *r.Trailer.YoutubeID}
}

func renderSynopsis(r domain.Record) Cell {
	return textCell(strings.TrimSpace(deref(r.Synopsis)))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// Describe renders a record as a short markdown document.
func Describe(r domain.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", orPlaceholder(r.Title))
	fmt.Fprintf(&b, "- **English title:** %s\n", orPlaceholder(deref(r.TitleEnglish)))
	fmt.Fprintf(&b, "- **Original title:** %s\n", orPlaceholder(deref(r.TitleJapanese)))
	fmt.Fprintf(&b, "- **Type:** %s\n", renderType(r).Text)
	fmt.Fprintf(&b, "- **Score:** %s\n", renderScore(r).Text)
	fmt.Fprintf(&b, "- **Aired:** %s\n", renderAired(r).Text)
	fmt.Fprintf(&b, "- **Genres:** %s\n", Names(func(r domain.Record) []domain.NamedResource { return r.Genres })(r).Text)
	if trailer := renderTrailer(r); trailer.Kind == KindLink {
		fmt.Fprintf(&b, "- **Trailer:** [%s](%s)\n", trailer.Text, trailer.URL)
	} else {
		fmt.Fprintf(&b, "- **Trailer:** %s\n", trailer.Text)
	}
	fmt.Fprintf(&b, "\n%s\n", renderSynopsis(r).Text)
	return b.String()
}
