package services

import (
	apperrors "sheetpulse/internal/errors"
)

// Dashboard errors. Callers wrap them with the offending name so the HTTP
// layer can report which sheet or column was missing.
var (
	ErrNoWorkbook = apperrors.NewAppError(apperrors.ErrTypeNoWorkbook, "no workbook is loaded", nil)

	ErrSheetNotFound  = apperrors.NewNotFoundError("sheet")
	ErrColumnNotFound = apperrors.NewNotFoundError("column")
	ErrLabelNotFound  = apperrors.NewNotFoundError("label")
	ErrNoChartData    = apperrors.NewNotFoundError("chart data")

	ErrUnsupportedFormat = apperrors.NewAppValidationError("unsupported chart format")
)

// Workbook library errors
var (
	ErrWorkbookFileNotFound = apperrors.NewNotFoundError("workbook file")
	ErrInvalidWorkbookName  = apperrors.NewAppValidationError("invalid workbook file name")
)

// Export errors
var (
	ErrExportNotFound = apperrors.NewNotFoundError("export")
	ErrNoExportItems  = apperrors.NewAppValidationError("export needs at least one item")
	ErrTooManyItems   = apperrors.NewAppValidationError("too many export items")
)
