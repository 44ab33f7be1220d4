package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"sheetpulse/internal/charts"
)

// utf8BOM helps Excel recognize UTF-8 CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes the data behind a chart: one row per x label and one
// column per series. Missing values are empty cells.
type CSVWriter struct {
	BOMPrefix bool
}

// NewCSVWriter creates a CSV writer that prefixes output with a UTF-8 BOM.
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{BOMPrefix: true}
}

// ContentType implements charts.Renderer
func (c *CSVWriter) ContentType() string {
	return "text/csv; charset=utf-8"
}

// Render implements charts.Renderer
func (c *CSVWriter) Render(w io.Writer, spec charts.Spec) error {
	if c.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	headers := make([]string, 0, len(spec.Series)+1)
	headers = append(headers, spec.XAxisName)
	for _, s := range spec.Series {
		headers = append(headers, s.Name)
	}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, label := range spec.XLabels {
		record := make([]string, 0, len(headers))
		record = append(record, label)
		for _, s := range spec.Series {
			cell := ""
			if i < len(s.Values) && s.Values[i].Valid {
				cell = strconv.FormatFloat(s.Values[i].Float64, 'f', -1, 64)
			}
			record = append(record, cell)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
