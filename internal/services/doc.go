// Package services implements the business logic of SheetPulse between the
// HTTP handlers and the parsing, charting and export packages.
//
// # Services
//
//	- DashboardService: holds the loaded workbook, walks the label hierarchy
//	  and builds or renders charts for a selected column
//	- ExportService: runs the export pipeline and keeps finished decks for
//	  download
//	- LibraryService: lists the workbooks stored in the data directory and
//	  loads one of them into the DashboardService
//	- HealthService: health, readiness, liveness and version reports
//
// # Caching
//
// DashboardService parses a sheet the first time it is requested and caches
// the parsed sheet with its category index. Chart specs are cached per
// selection (sheet, column, kind, window); concurrent requests for the same
// selection share one computation through singleflight. Loading or uploading
// a workbook drops both caches.
//
// # Errors
//
// Services return *errors.AppError sentinels wrapped with the name that was
// not found, so the HTTP layer maps them to problem details:
//
//	ErrNoWorkbook                            409
//	ErrSheetNotFound, ErrColumnNotFound,
//	ErrLabelNotFound, ErrExportNotFound,
//	ErrWorkbookFileNotFound                  404
//	ErrTooManyItems, ErrUnsupportedFormat,
//	ErrInvalidWorkbookName                   400
//	unreadable workbook or sheet             422
package services
