package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"sheetpulse/internal/config"
	apperrors "sheetpulse/internal/errors"
	"sheetpulse/internal/exporter"
	"sheetpulse/internal/infrastructure"
	api "sheetpulse/pkg/contracts/api/v1"
	"sheetpulse/pkg/contracts/domain"
)

// DefaultDeckTitle is used when an export request has no title.
const DefaultDeckTitle = "图表导出"

// ExportOptions configure an ExportService.
type ExportOptions struct {
	MaxItems  int
	KeepDecks int
	// DownloadPrefix is joined with the export id to form the download URL.
	DownloadPrefix string
}

// ExportRecord is a finished export kept for download.
type ExportRecord struct {
	ID        string
	Title     string
	Path      string
	CreatedAt time.Time
}

// ExportService turns a list of charts into a slide deck and keeps the most
// recent decks on disk for download.
type ExportService struct {
	specs   exporter.SpecSource
	images  exporter.ImageRenderer
	paths   *config.Paths
	opts    ExportOptions
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger

	mu      sync.Mutex
	exports map[string]ExportRecord
	newID   func() string
}

// NewExportService creates an export service writing decks to the exports
// directory of paths.
func NewExportService(specs exporter.SpecSource, images exporter.ImageRenderer, paths *config.Paths, opts ExportOptions, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DownloadPrefix == "" {
		opts.DownloadPrefix = "/api/exports/"
	}
	return &ExportService{
		specs:   specs,
		images:  images,
		paths:   paths,
		opts:    opts,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "export_service")),
		exports: make(map[string]ExportRecord),
		newID:   uuid.NewString,
	}
}

// Export renders every item and writes the deck. Items that fail are skipped
// and reported; the deck holds the rest.
func (s *ExportService) Export(ctx context.Context, req api.ExportRequest) (*api.ExportResponse, error) {
	items, err := s.items(req)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultDeckTitle
	}

	id := s.newID()
	ctx, span := infrastructure.StartSpan(ctx, "export.run",
		attribute.String("export.id", id),
		attribute.Int("export.items", len(items)))
	defer span.End()

	s.metrics.RecordActiveExportChange(ctx, 1)
	defer s.metrics.RecordActiveExportChange(ctx, -1)

	start := time.Now()
	outPath := s.paths.GetExportPath(id)
	pipeline := exporter.NewPipeline(s.specs, s.images, s.paths.CacheDir, s.logger)
	result, err := pipeline.Run(ctx, title, items, outPath)
	if err != nil {
		s.metrics.RecordExport(ctx, 0, len(items), time.Since(start), err)
		s.metrics.RecordSystemError(ctx, "export", "export_service")
		infrastructure.RecordError(ctx, err)
		return nil, apperrors.NewExportError("cannot write deck", err)
	}
	s.metrics.RecordExport(ctx, len(result.Succeeded), len(result.Failed), result.Duration, nil)

	record := ExportRecord{ID: id, Title: title, Path: outPath, CreatedAt: time.Now()}
	s.remember(record)

	resp := &api.ExportResponse{
		ID:          id,
		Title:       title,
		Succeeded:   len(result.Succeeded),
		Failed:      make([]api.ExportFailure, 0, len(result.Failed)),
		DownloadURL: s.opts.DownloadPrefix + id,
		CreatedAt:   record.CreatedAt,
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, api.ExportFailure{
			Sheet:  f.Item.Sheet,
			Column: f.Item.Column,
			Error:  f.Err.Error(),
		})
	}
	return resp, nil
}

func (s *ExportService) items(req api.ExportRequest) ([]exporter.Item, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoExportItems
	}
	if s.opts.MaxItems > 0 && len(req.Items) > s.opts.MaxItems {
		return nil, fmt.Errorf("%w: %d requested, at most %d allowed", ErrTooManyItems, len(req.Items), s.opts.MaxItems)
	}

	items := make([]exporter.Item, 0, len(req.Items))
	for i, it := range req.Items {
		kind, err := domain.ParseChartKind(it.Kind)
		if err != nil {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("items[%d].kind: %v", i, err))
		}
		window, err := domain.ParseYearWindow(it.Window)
		if err != nil {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("items[%d].window: %v", i, err))
		}
		items = append(items, exporter.Item{Sheet: it.Sheet, Column: it.Column, Kind: kind, Window: window})
	}
	return items, nil
}

// remember records an export and removes the oldest decks beyond KeepDecks.
func (s *ExportService) remember(record ExportRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exports[record.ID] = record
	if s.opts.KeepDecks <= 0 || len(s.exports) <= s.opts.KeepDecks {
		return
	}

	records := make([]ExportRecord, 0, len(s.exports))
	for _, r := range s.exports {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	for _, old := range records[:len(records)-s.opts.KeepDecks] {
		delete(s.exports, old.ID)
		if err := os.Remove(old.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove old deck",
				slog.String("id", old.ID),
				slog.String("error", err.Error()))
		}
	}
}

// Get returns a finished export.
func (s *ExportService) Get(ctx context.Context, id string) (*ExportRecord, error) {
	s.mu.Lock()
	record, ok := s.exports[id]
	s.mu.Unlock()

	if !ok || !config.FileExists(record.Path) {
		return nil, fmt.Errorf("%w: %q", ErrExportNotFound, id)
	}
	return &record, nil
}
