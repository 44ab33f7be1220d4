package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"sheetpulse/internal/charts"
	"sheetpulse/internal/dataprocessing"
	apperrors "sheetpulse/internal/errors"
	"sheetpulse/internal/exporter"
	"sheetpulse/internal/infrastructure"
	api "sheetpulse/pkg/contracts/api/v1"
	"sheetpulse/pkg/contracts/domain"
)

// Chart output formats
const (
	FormatJSON = "json"
	FormatHTML = "html"
	FormatPNG  = "png"
	FormatCSV  = "csv"
)

// Workbook sources, used as a metric attribute
const (
	SourceFile   = "file"
	SourceUpload = "upload"
)

// DashboardOptions configure a DashboardService.
type DashboardOptions struct {
	Layout        dataprocessing.Layout
	DefaultWindow domain.YearWindow
	HTML          charts.HTMLOptions
	RasterWidth   int
	RasterHeight  int
}

// DefaultDashboardOptions returns the standard header layout, a five-year
// window and 1000x800 charts.
func DefaultDashboardOptions() DashboardOptions {
	return DashboardOptions{
		Layout:        dataprocessing.DefaultLayout(),
		DefaultWindow: domain.YearWindow5,
		HTML:          charts.HTMLOptions{Width: "1000px", Height: "800px"},
		RasterWidth:   1000,
		RasterHeight:  800,
	}
}

// RenderedChart is a chart drawn in one output format.
type RenderedChart struct {
	ContentType string
	Body        []byte
}

type sheetEntry struct {
	sheet *domain.Sheet
	index *dataprocessing.CategoryIndex
}

// DashboardService holds the loaded workbook and answers every dashboard
// interaction from it. Parsed sheets and chart specs are cached until the
// workbook is replaced.
type DashboardService struct {
	mu         sync.RWMutex
	workbook   *dataprocessing.Workbook
	loadedAt   time.Time
	generation uint64
	sheets     map[string]*sheetEntry
	specs      map[string]charts.Spec

	group     singleflight.Group
	opts      DashboardOptions
	renderers map[string]charts.Renderer
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
}

// NewDashboardService creates a service with no workbook loaded.
func NewDashboardService(opts DashboardOptions, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultWindow == "" {
		opts.DefaultWindow = domain.YearWindow5
	}
	return &DashboardService{
		sheets: make(map[string]*sheetEntry),
		specs:  make(map[string]charts.Spec),
		opts:   opts,
		renderers: map[string]charts.Renderer{
			FormatHTML: charts.NewHTMLRenderer(opts.HTML),
			FormatPNG:  charts.NewRasterRenderer(opts.RasterWidth, opts.RasterHeight),
			FormatCSV:  exporter.NewCSVWriter(),
		},
		metrics: metrics,
		logger:  logger.With(slog.String("component", "dashboard_service")),
	}
}

// Load reads the workbook at path and makes it the current one.
func (s *DashboardService) Load(ctx context.Context, path string) (*api.WorkbookResponse, error) {
	ctx, span := infrastructure.StartSpan(ctx, "dashboard.load", attribute.String("workbook.path", path))
	defer span.End()

	wb, err := dataprocessing.OpenWorkbook(path, s.readOptions()...)
	return s.install(ctx, wb, SourceFile, err)
}

// Upload reads a workbook from r and makes it the current one. name is kept
// for display.
func (s *DashboardService) Upload(ctx context.Context, r io.Reader, name string) (*api.WorkbookResponse, error) {
	ctx, span := infrastructure.StartSpan(ctx, "dashboard.upload", attribute.String("workbook.name", name))
	defer span.End()

	wb, err := dataprocessing.ReadWorkbook(r, name, s.readOptions()...)
	return s.install(ctx, wb, SourceUpload, err)
}

func (s *DashboardService) readOptions() []dataprocessing.Option {
	return []dataprocessing.Option{
		dataprocessing.WithLayout(s.opts.Layout),
		dataprocessing.WithLogger(s.logger),
	}
}

func (s *DashboardService) install(ctx context.Context, wb *dataprocessing.Workbook, source string, err error) (*api.WorkbookResponse, error) {
	if err != nil {
		s.metrics.RecordWorkbookLoad(ctx, source, err)
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "Workbook rejected",
			slog.String("source", source),
			slog.String("error", err.Error()))
		return nil, apperrors.NewParsingError("cannot read workbook", err)
	}

	s.mu.Lock()
	s.workbook = wb
	s.loadedAt = time.Now()
	s.generation++
	s.sheets = make(map[string]*sheetEntry)
	s.specs = make(map[string]charts.Spec)
	resp := s.describe()
	s.mu.Unlock()

	s.metrics.RecordWorkbookLoad(ctx, source, nil)
	s.logger.InfoContext(ctx, "Workbook installed",
		slog.String("name", resp.Name),
		slog.String("source", source),
		slog.Int("sheets", len(resp.Sheets)))
	return resp, nil
}

// describe must be called with mu held.
func (s *DashboardService) describe() *api.WorkbookResponse {
	return &api.WorkbookResponse{
		Name:     filepath.Base(s.workbook.Name),
		Sheets:   s.workbook.SheetNames(),
		LoadedAt: s.loadedAt,
	}
}

// Loaded reports whether a workbook is available.
func (s *DashboardService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workbook != nil
}

// Current describes the loaded workbook.
func (s *DashboardService) Current(ctx context.Context) (*api.WorkbookResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.workbook == nil {
		return nil, ErrNoWorkbook
	}
	return s.describe(), nil
}

// SheetNames lists the sheets of the loaded workbook in workbook order.
func (s *DashboardService) SheetNames(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.workbook == nil {
		return nil, ErrNoWorkbook
	}
	return s.workbook.SheetNames(), nil
}

// Sheet returns the parsed sheet.
func (s *DashboardService) Sheet(ctx context.Context, name string) (*domain.Sheet, error) {
	entry, err := s.entry(ctx, name)
	if err != nil {
		return nil, err
	}
	return entry.sheet, nil
}

// entry parses a sheet on first use and caches it with its category index.
func (s *DashboardService) entry(ctx context.Context, name string) (*sheetEntry, error) {
	s.mu.RLock()
	wb, gen := s.workbook, s.generation
	cached, ok := s.sheets[name]
	s.mu.RUnlock()

	if wb == nil {
		return nil, ErrNoWorkbook
	}
	if ok {
		return cached, nil
	}

	sheet, err := wb.Sheet(name)
	if !errors.Is(err, dataprocessing.ErrSheetNotFound) {
		s.metrics.RecordSheetParse(ctx, err)
	}
	switch {
	case errors.Is(err, dataprocessing.ErrSheetNotFound):
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	case errors.Is(err, dataprocessing.ErrHeaderTooShort):
		return nil, apperrors.NewParsingError(fmt.Sprintf("sheet %q has an incomplete header block", name), err)
	case err != nil:
		return nil, apperrors.NewParsingError(fmt.Sprintf("cannot parse sheet %q", name), err)
	}

	entry := &sheetEntry{sheet: sheet, index: dataprocessing.NewCategoryIndex(sheet.Columns)}
	infrastructure.AddSpanEvent(ctx, "sheet.parsed",
		attribute.String("sheet", name),
		attribute.Int("columns", len(sheet.Columns)),
		attribute.Int("rows", len(sheet.Rows)))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		s.sheets[name] = entry
	}
	return entry, nil
}

// PrimaryLabels lists the distinct primary labels of a sheet in column order.
func (s *DashboardService) PrimaryLabels(ctx context.Context, sheet string) ([]string, error) {
	entry, err := s.entry(ctx, sheet)
	if err != nil {
		return nil, err
	}
	return entry.index.PrimaryLabels(), nil
}

// SecondaryLabels lists the secondary labels found under primary.
func (s *DashboardService) SecondaryLabels(ctx context.Context, sheet, primary string) ([]string, error) {
	entry, err := s.entry(ctx, sheet)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(entry.index.PrimaryLabels(), primary) {
		return nil, fmt.Errorf("%w: primary %q", ErrLabelNotFound, primary)
	}
	return entry.index.SecondaryLabels(primary), nil
}

// Columns lists the columns filed under primary and secondary, with their
// frequency and description text.
func (s *DashboardService) Columns(ctx context.Context, sheet, primary, secondary string) ([]api.ColumnInfo, error) {
	entry, err := s.entry(ctx, sheet)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(entry.index.PrimaryLabels(), primary) {
		return nil, fmt.Errorf("%w: primary %q", ErrLabelNotFound, primary)
	}
	if !slices.Contains(entry.index.SecondaryLabels(primary), secondary) {
		return nil, fmt.Errorf("%w: secondary %q", ErrLabelNotFound, secondary)
	}

	ids := entry.index.Columns(primary, secondary)
	out := make([]api.ColumnInfo, 0, len(ids))
	for _, id := range ids {
		meta, _ := entry.sheet.Column(id)
		out = append(out, api.ColumnInfo{
			ID:          meta.ID,
			Frequency:   meta.Frequency,
			Description: meta.Description,
		})
	}
	return out, nil
}

// ChartSpec builds the chart of one column. An empty window selects the
// configured default. Concurrent requests for the same chart share one
// computation.
func (s *DashboardService) ChartSpec(ctx context.Context, sheet, column string, kind domain.ChartKind, window domain.YearWindow) (charts.Spec, error) {
	if kind == "" {
		kind = domain.ChartTimeSeries
	}
	if window == "" {
		window = s.opts.DefaultWindow
	}

	s.mu.RLock()
	loaded, gen := s.workbook != nil, s.generation
	s.mu.RUnlock()
	if !loaded {
		return charts.Spec{}, ErrNoWorkbook
	}

	key := specKey(gen, sheet, column, kind, window)
	s.mu.RLock()
	spec, ok := s.specs[key]
	s.mu.RUnlock()
	s.metrics.RecordChartCache(ctx, ok)
	if ok {
		return spec, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		spec, err := s.buildSpec(ctx, sheet, column, kind, window)
		if err != nil {
			return charts.Spec{}, err
		}
		s.mu.Lock()
		if s.generation == gen {
			s.specs[key] = spec
		}
		s.mu.Unlock()
		return spec, nil
	})
	if err != nil {
		return charts.Spec{}, err
	}
	return v.(charts.Spec), nil
}

func (s *DashboardService) buildSpec(ctx context.Context, sheet, column string, kind domain.ChartKind, window domain.YearWindow) (charts.Spec, error) {
	entry, err := s.entry(ctx, sheet)
	if err != nil {
		return charts.Spec{}, err
	}
	meta, ok := entry.sheet.Column(column)
	if !ok {
		return charts.Spec{}, fmt.Errorf("%w: %q in sheet %q", ErrColumnNotFound, column, sheet)
	}
	points, _ := entry.sheet.Observations(column)

	if kind == domain.ChartSeasonal {
		freq := domain.DetectFrequency(meta.Frequency)
		aligned := dataprocessing.AlignSeasonal(points, freq, window)
		s.logger.DebugContext(ctx, "Seasonal chart built",
			slog.String("sheet", sheet),
			slog.String("column", column),
			slog.String("frequency", string(freq)),
			slog.Int("years", len(aligned.Series)))
		return charts.FromSeasonal(aligned, meta), nil
	}

	ts := dataprocessing.BuildTimeSeries(column, points)
	s.logger.DebugContext(ctx, "Time series built",
		slog.String("sheet", sheet),
		slog.String("column", column),
		slog.Int("points", len(ts.Values)))
	return charts.FromTimeSeries(ts, meta), nil
}

// RenderChart draws a chart as html, png or csv.
func (s *DashboardService) RenderChart(ctx context.Context, sheet, column string, kind domain.ChartKind, window domain.YearWindow, format string) (*RenderedChart, error) {
	format = strings.ToLower(format)
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	ctx, span := infrastructure.StartSpan(ctx, "dashboard.render_chart",
		attribute.String("sheet", sheet),
		attribute.String("column", column),
		attribute.String("kind", string(kind)),
		attribute.String("format", format))
	defer span.End()

	start := time.Now()
	spec, err := s.ChartSpec(ctx, sheet, column, kind, window)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = renderer.Render(&buf, spec)
	s.metrics.RecordChartRender(ctx, string(spec.Kind), format, time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		if errors.Is(err, charts.ErrNoData) {
			return nil, fmt.Errorf("%w: %q in sheet %q", ErrNoChartData, column, sheet)
		}
		return nil, apperrors.NewRenderError(fmt.Sprintf("cannot render %s chart", format), err)
	}
	return &RenderedChart{ContentType: renderer.ContentType(), Body: buf.Bytes()}, nil
}

func specKey(gen uint64, sheet, column string, kind domain.ChartKind, window domain.YearWindow) string {
	if kind != domain.ChartSeasonal {
		window = ""
	}
	return strings.Join([]string{strconv.FormatUint(gen, 10), sheet, column, string(kind), string(window)}, "\x00")
}
