package render

import "anime/catalog/internal/domain"

type ColumnHeader struct {
	Key      string           `json:"key"`
	Header   string           `json:"header"`
	Sortable bool             `json:"sortable"`
	Sort     domain.SortField `json:"sort,omitempty"`
}

type Row struct {
	ID    int             `json:"id"`
	Cells map[string]Cell `json:"cells"`
}

// Projection is the rendered form of a derived view, for clients that do
// their own layout.
type Projection struct {
	Columns []ColumnHeader `json:"columns"`
	Rows    []Row          `json:"rows"`
	Empty   string         `json:"empty,omitempty"`
}

func Project(records []domain.Record, columns []Column) Projection {
	p := Projection{
		Columns: make([]ColumnHeader, 0, len(columns)),
		Rows:    make([]Row, 0, len(records)),
	}
	for _, c := range columns {
		p.Columns = append(p.Columns, ColumnHeader{Key: c.Key, Header: c.Header, Sortable: c.Sortable(), Sort: c.Sort})
	}
	if len(records) == 0 {
		p.Empty = EmptyResult
		return p
	}

	for i, cells := range Rows(records, columns) {
		row := Row{ID: records[i].MalID, Cells: make(map[string]Cell, len(columns))}
		for j, c := range columns {
			row.Cells[c.Key] = cells[j]
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}
