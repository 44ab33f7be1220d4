// Package dataprocessing turns workbook sheets into chart-ready data.
//
// # Architecture
//
//  1. Parser: reads .xlsx files with excelize and splits each sheet into a
//     header block and dated data rows
//  2. CategoryIndex: the primary -> secondary -> column hierarchy of one
//     sheet, in workbook order
//  3. Series: BuildTimeSeries for a single column over time and
//     AlignSeasonal for one line per year on a shared period axis
//  4. Axis: padded y-axis bounds for a set of values
//
// # Usage
//
//	wb, err := dataprocessing.OpenWorkbook("prices.xlsx",
//	    dataprocessing.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	sheet, err := wb.Sheet("价格")
//	if err != nil {
//	    return err
//	}
//	index := dataprocessing.NewCategoryIndex(sheet.Columns)
//	points, _ := sheet.Observations("华东现货价")
//	season := dataprocessing.AlignSeasonal(points, domain.FrequencyWeekly, domain.YearWindow5)
//
// # Header Layout
//
// The header block starts at Layout.HeaderStart (0-based, default 1) and
// is six rows deep: primary, secondary, an unused row, column id,
// frequency and description. Column 0 holds dates. Blank ids become
// "Unnamed: <i>" and repeated ids get ".1", ".2" suffixes.
//
// # Missing Values
//
// Empty or non-numeric cells become invalid domain.NullFloat values. They
// are kept as gaps in time series and skipped when computing axis ranges.
package dataprocessing
