package http

import (
	"context"
	"io"

	"sheetpulse/internal/charts"
	"sheetpulse/internal/services"
	api "sheetpulse/pkg/contracts/api/v1"
	"sheetpulse/pkg/contracts/domain"
)

// DashboardServiceInterface defines the workbook and chart operations used by
// the dashboard handler
type DashboardServiceInterface interface {
	Upload(ctx context.Context, r io.Reader, name string) (*api.WorkbookResponse, error)
	Current(ctx context.Context) (*api.WorkbookResponse, error)
	SheetNames(ctx context.Context) ([]string, error)
	PrimaryLabels(ctx context.Context, sheet string) ([]string, error)
	SecondaryLabels(ctx context.Context, sheet, primary string) ([]string, error)
	Columns(ctx context.Context, sheet, primary, secondary string) ([]api.ColumnInfo, error)
	ChartSpec(ctx context.Context, sheet, column string, kind domain.ChartKind, window domain.YearWindow) (charts.Spec, error)
	RenderChart(ctx context.Context, sheet, column string, kind domain.ChartKind, window domain.YearWindow, format string) (*services.RenderedChart, error)
}

// ExportServiceInterface defines the deck export operations
type ExportServiceInterface interface {
	Export(ctx context.Context, req api.ExportRequest) (*api.ExportResponse, error)
	Get(ctx context.Context, id string) (*services.ExportRecord, error)
}

// LibraryServiceInterface defines the stored workbook operations
type LibraryServiceInterface interface {
	List(ctx context.Context) ([]api.WorkbookFile, error)
	Open(ctx context.Context, name string) (*api.WorkbookResponse, error)
}
