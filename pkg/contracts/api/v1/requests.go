// Package api contains API contract definitions for SheetPulse.
// Version v1 represents the current stable API version.
package api

// Dashboard API Requests

// ChartRequest selects one column of a sheet and how to chart it.
type ChartRequest struct {
	Sheet  string `json:"sheet" validate:"required"`
	Column string `json:"column" query:"column" validate:"required"`
	Kind   string `json:"kind" query:"kind" validate:"omitempty,chartkind"`
	Window string `json:"window" query:"window" validate:"omitempty,yearwindow"`
	Format string `json:"format" query:"format" validate:"omitempty,oneof=json html png csv"`
}

// ColumnsRequest filters the columns of a sheet by label.
type ColumnsRequest struct {
	Sheet     string `json:"sheet" validate:"required"`
	Primary   string `json:"primary" query:"primary" validate:"required"`
	Secondary string `json:"secondary" query:"secondary" validate:"required"`
}

// Export API Requests

// ExportItem is one chart to place on a slide.
type ExportItem struct {
	Sheet  string `json:"sheet" validate:"required"`
	Column string `json:"column" validate:"required"`
	Kind   string `json:"kind" validate:"omitempty,chartkind"`
	Window string `json:"window" validate:"omitempty,yearwindow"`
}

// ExportRequest builds a slide deck from a list of charts.
type ExportRequest struct {
	Title string       `json:"title" validate:"max=200"`
	Items []ExportItem `json:"items" validate:"required,min=1,max=100,dive"`
}
