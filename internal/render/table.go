package render

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"anime/catalog/internal/domain"
)

// Column binds a record attribute to its header, its sort field (empty when
// the column is not sortable) and its render strategy.
type Column struct {
	Key    string
	Header string
	Sort   domain.SortField
	Render Strategy
}

func (c Column) Sortable() bool {
	return c.Sort != ""
}

// DefaultColumns mirrors the attributes of a catalog record, in API order.
var DefaultColumns = []Column{
	{Key: "mal_id", Header: "ID", Render: renderID},
	{Key: "url", Header: "URL", Render: Link(func(r domain.Record) string { return r.URL })},
	{Key: "images", Header: "Image", Render: renderImage},
	{Key: "trailer", Header: "Trailer", Render: renderTrailer},
	{Key: "approved", Header: "Approved", Render: Flag(func(r domain.Record) bool { return r.Approved })},
	{Key: "title", Header: "Title", Sort: domain.SortFieldTitle, Render: renderTitle},
	{Key: "type", Header: "Type", Sort: domain.SortFieldType, Render: renderType},
	{Key: "source", Header: "Source", Render: Text(func(r domain.Record) *string { return r.Source })},
	{Key: "episodes", Header: "Episodes", Render: Number(func(r domain.Record) *int { return r.Episodes })},
	{Key: "status", Header: "Status", Render: Text(func(r domain.Record) *string { return r.Status })},
	{Key: "airing", Header: "Airing", Render: Flag(func(r domain.Record) bool { return r.Airing })},
	{Key: "aired", Header: "Aired", Sort: domain.SortFieldAiredFrom, Render: renderAired},
	{Key: "duration", Header: "Duration", Render: Text(func(r domain.Record) *string { return r.Duration })},
	{Key: "rating", Header: "Rating", Render: Text(func(r domain.Record) *string { return r.Rating })},
	{Key: "score", Header: "Score", Sort: domain.SortFieldScore, Render: renderScore},
	{Key: "scored_by", Header: "Scored by", Render: Number(func(r domain.Record) *int { return r.ScoredBy })},
	{Key: "rank", Header: "Rank", Render: Number(func(r domain.Record) *int { return r.Rank })},
	{Key: "popularity", Header: "Popularity", Render: Number(func(r domain.Record) *int { return r.Popularity })},
	{Key: "members", Header: "Members", Render: Number(func(r domain.Record) *int { return r.Members })},
	{Key: "favorites", Header: "Favorites", Render: Number(func(r domain.Record) *int { return r.Favorites })},
	{Key: "synopsis", Header: "Synopsis", Render: renderSynopsis},
	{Key: "background", Header: "Background", Render: Text(func(r domain.Record) *string { return r.Background })},
	{Key: "season", Header: "Season", Render: Text(func(r domain.Record) *string { return r.Season })},
	{Key: "year", Header: "Year", Render: Number(func(r domain.Record) *int { return r.Year })},
	{Key: "broadcast", Header: "Broadcast", Render: renderBroadcast},
	{Key: "producers", Header: "Producers", Render: Names(func(r domain.Record) []domain.NamedResource { return r.Producers })},
	{Key: "licensors", Header: "Licensors", Render: Names(func(r domain.Record) []domain.NamedResource { return r.Licensors })},
	{Key: "studios", Header: "Studios", Render: Names(func(r domain.Record) []domain.NamedResource { return r.Studios })},
	{Key: "genres", Header: "Genres", Render: Names(func(r domain.Record) []domain.NamedResource { return r.Genres })},
	{Key: "explicit_genres", Header: "Explicit genres", Render: Names(func(r domain.Record) []domain.NamedResource { return r.ExplicitGenres })},
	{Key: "themes", Header: "Themes", Render: Names(func(r domain.Record) []domain.NamedResource { return r.Themes })},
	{Key: "demographics", Header: "Demographics", Render: Names(func(r domain.Record) []domain.NamedResource { return r.Demographics })},
}

// CompactColumns is the subset that fits a terminal.
var CompactColumns = Select(DefaultColumns, "title", "type", "score", "aired", "episodes", "studios", "genres", "trailer")

// Select picks columns by key in the given order. Unknown keys are skipped.
func Select(columns []Column, keys ...string) []Column {
	out := make([]Column, 0, len(keys))
	for _, key := range keys {
		for _, c := range columns {
			if c.Key == key {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// SortColumns returns the sortable columns in display order.
func SortColumns(columns []Column) []Column {
	out := make([]Column, 0, len(domain.SortFields))
	for _, c := range columns {
		if c.Sortable() {
			out = append(out, c)
		}
	}
	return out
}

// Rows renders every record through every column.
func Rows(records []domain.Record, columns []Column) [][]Cell {
	rows := make([][]Cell, 0, len(records))
	for _, r := range records {
		row := make([]Cell, 0, len(columns))
		for _, c := range columns {
			row = append(row, c.Render(r))
		}
		rows = append(rows, row)
	}
	return rows
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle = cellStyle.Reverse(true)
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Layout controls text table output. Selected is the 1-based row to
// highlight, 0 for none.
type Layout struct {
	Width    int
	Selected int
}

// Header returns the header label for c, marking the active sort.
func Header(c Column, p domain.Preferences) string {
	if !c.Sortable() || c.Sort != p.SortField {
		return c.Header
	}
	if p.SortOrder == domain.SortOrderDesc {
		return c.Header + " ▼"
	}
	return c.Header + " ▲"
}

// Table renders records as a bordered text table, or EmptyResult when there
// is nothing to show.
func Table(records []domain.Record, columns []Column, p domain.Preferences, layout Layout) string {
	if len(records) == 0 {
		return EmptyResult
	}

	headers := make([]string, 0, len(columns))
	for _, c := range columns {
		headers = append(headers, Header(c, p))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == layout.Selected-1:
				return selectedStyle
			default:
				return cellStyle
			}
		})
	if layout.Width > 0 {
		t = t.Width(layout.Width)
	}

	for _, row := range Rows(records, columns) {
		text := make([]string, 0, len(row))
		for _, cell := range row {
			text = append(text, cell.String())
		}
		t = t.Row(text...)
	}
	return t.String()
}
