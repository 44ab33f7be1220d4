package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	apperrors "sheetpulse/internal/errors"
	"sheetpulse/internal/files"
	"sheetpulse/internal/infrastructure"
	api "sheetpulse/pkg/contracts/api/v1"
)

// WorkbookLoader makes the workbook at path the current one.
type WorkbookLoader interface {
	Load(ctx context.Context, path string) (*api.WorkbookResponse, error)
}

// LibraryService lists the workbooks in the data directory and opens them
// on the dashboard.
type LibraryService struct {
	catalog *files.Catalog
	loader  WorkbookLoader
	logger  *slog.Logger
}

// NewLibraryService creates a library over catalog
func NewLibraryService(catalog *files.Catalog, loader WorkbookLoader, logger *slog.Logger) *LibraryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryService{
		catalog: catalog,
		loader:  loader,
		logger:  logger.With(slog.String("component", "library_service")),
	}
}

// List returns the stored workbooks, newest first
func (s *LibraryService) List(ctx context.Context) ([]api.WorkbookFile, error) {
	found, err := s.catalog.List()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list stored workbooks", err)
	}
	out := make([]api.WorkbookFile, len(found))
	for i, f := range found {
		out[i] = api.WorkbookFile{Name: f.Name, Size: f.Size, ModifiedAt: f.ModTime}
	}
	return out, nil
}

// Open loads the named workbook from the data directory
func (s *LibraryService) Open(ctx context.Context, name string) (*api.WorkbookResponse, error) {
	ctx, span := infrastructure.StartSpan(ctx, "library.open", attribute.String("workbook.name", name))
	defer span.End()

	path, err := s.catalog.Resolve(name)
	switch {
	case errors.Is(err, files.ErrInvalidName):
		return nil, fmt.Errorf("%w: %q", ErrInvalidWorkbookName, name)
	case errors.Is(err, files.ErrNotFound):
		return nil, fmt.Errorf("%w: %q", ErrWorkbookFileNotFound, name)
	case err != nil:
		return nil, apperrors.NewStorageError("failed to resolve stored workbook", err)
	}

	s.logger.InfoContext(ctx, "Opening stored workbook", slog.String("path", path))
	return s.loader.Load(ctx, path)
}

// OpenLatest loads the newest stored workbook. ok is false when the data
// directory holds none.
func (s *LibraryService) OpenLatest(ctx context.Context) (resp *api.WorkbookResponse, ok bool, err error) {
	latest, ok, err := s.catalog.Latest()
	if err != nil {
		return nil, false, apperrors.NewStorageError("failed to list stored workbooks", err)
	}
	if !ok {
		return nil, false, nil
	}
	resp, err = s.Open(ctx, latest.Name)
	return resp, true, err
}
