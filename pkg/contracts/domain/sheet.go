package domain

import (
	"time"
)

// UnlabeledCategory is the label given to columns whose header block has no
// primary or secondary label cell.
const UnlabeledCategory = "未分类"

// ColumnMeta holds the header-block metadata of one data column.
type ColumnMeta struct {
	ID          string `json:"id" validate:"required"`
	Position    int    `json:"position" validate:"min=0"`
	Primary     string `json:"primary"`
	Secondary   string `json:"secondary"`
	Frequency   string `json:"frequency"`
	Description string `json:"description"`
}

// Row is one data row of a sheet. Values is parallel to Sheet.Columns.
type Row struct {
	Date   time.Time   `json:"date"`
	Values []NullFloat `json:"values"`
}

// Sheet is a parsed worksheet: a date column followed by numeric measurement
// columns, each described by its header block.
type Sheet struct {
	Name       string       `json:"name" validate:"required"`
	DateColumn string       `json:"date_column"`
	Columns    []ColumnMeta `json:"columns"`
	Rows       []Row        `json:"rows"`
}

// Column returns the metadata of the column with the given identifier.
func (s *Sheet) Column(id string) (ColumnMeta, bool) {
	for _, c := range s.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return ColumnMeta{}, false
}

// Observations returns every (date, value) pair of a column in row order,
// missing values included. The second result is false when the column does
// not exist.
func (s *Sheet) Observations(id string) ([]Observation, bool) {
	meta, ok := s.Column(id)
	if !ok {
		return nil, false
	}

	obs := make([]Observation, 0, len(s.Rows))
	for _, row := range s.Rows {
		var v NullFloat
		if meta.Position < len(row.Values) {
			v = row.Values[meta.Position]
		}
		obs = append(obs, Observation{Date: row.Date, Column: id, Value: v})
	}
	return obs, true
}

// CategoryEntry maps a column identifier to its two label levels.
type CategoryEntry struct {
	Column    string `json:"column"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Observation is a single measurement of one column on one date.
type Observation struct {
	Date   time.Time `json:"date"`
	Column string    `json:"column"`
	Value  NullFloat `json:"value"`
}
