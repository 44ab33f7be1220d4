// Package shared holds code used across SheetPulse packages that belongs to
// no single layer.
//
// The testutil subpackage provides captured slog handlers and excelize
// workbook fixtures in the dashboard's header layout:
//
//	path := testutil.WriteWorkbook(t, testutil.PriceSheet())
//	wb, err := dataprocessing.OpenWorkbook(path)
package shared
