package dataprocessing

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sheetpulse/pkg/contracts/domain"
)

var (
	// ErrHeaderTooShort is returned when a sheet ends before its column
	// identifier row.
	ErrHeaderTooShort = errors.New("sheet is shorter than its header block")

	// ErrSheetNotFound is returned for a sheet name the workbook does not have.
	ErrSheetNotFound = errors.New("sheet not found")
)

// Layout locates the header block of a sheet. Row offsets are relative to
// HeaderStart, which is a 0-based sheet row.
type Layout struct {
	HeaderStart    int
	PrimaryRow     int
	SecondaryRow   int
	IDRow          int
	FrequencyRow   int
	DescriptionRow int
}

// DefaultLayout skips one banner row and reads the six-row header block
// below it.
func DefaultLayout() Layout {
	return Layout{
		HeaderStart:    1,
		PrimaryRow:     0,
		SecondaryRow:   1,
		IDRow:          3,
		FrequencyRow:   4,
		DescriptionRow: 5,
	}
}

// idRowIndex is the sheet row holding the column identifiers.
func (l Layout) idRowIndex() int {
	return l.HeaderStart + l.IDRow
}

// Header is the parsed header block. Every slice except Columns is indexed by
// data-column position; the date column is excluded.
type Header struct {
	DateColumn  string
	Columns     []string
	Primary     []string
	Secondary   []string
	Frequency   []string
	Description []string
}

// Option configures workbook reading.
type Option func(*readOptions)

type readOptions struct {
	layout Layout
	logger *slog.Logger
}

// WithLayout overrides the header block layout.
func WithLayout(l Layout) Option {
	return func(o *readOptions) { o.layout = l }
}

// WithLogger sets the logger used while parsing.
func WithLogger(l *slog.Logger) Option {
	return func(o *readOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Workbook is a spreadsheet held in memory as raw cell text per sheet.
type Workbook struct {
	Name     string
	sheets   []string
	rows     map[string][][]string
	date1904 bool
	layout   Layout
	logger   *slog.Logger
}

// OpenWorkbook reads the workbook at path.
func OpenWorkbook(path string, opts ...Option) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return load(f, path, opts)
}

// ReadWorkbook reads a workbook from r. name is kept for display only.
func ReadWorkbook(r io.Reader, name string, opts ...Option) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	defer f.Close()
	return load(f, name, opts)
}

func load(f *excelize.File, name string, opts []Option) (*Workbook, error) {
	o := readOptions{layout: DefaultLayout(), logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	wb := &Workbook{
		Name:   name,
		rows:   make(map[string][][]string),
		layout: o.layout,
		logger: o.logger.With(slog.String("component", "workbook")),
	}

	props, err := f.GetWorkbookProps()
	if err == nil && props.Date1904 != nil {
		wb.date1904 = *props.Date1904
	}

	for _, sheet := range f.GetSheetList() {
		// Raw values keep date cells as serial numbers regardless of their
		// display format.
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		wb.sheets = append(wb.sheets, sheet)
		wb.rows[sheet] = rows
	}

	wb.logger.Info("Workbook loaded",
		slog.String("name", name),
		slog.Int("sheets", len(wb.sheets)),
		slog.Bool("date1904", wb.date1904))

	return wb, nil
}

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	out := make([]string, len(w.sheets))
	copy(out, w.sheets)
	return out
}

// Sheet parses the named sheet.
func (w *Workbook) Sheet(name string) (*domain.Sheet, error) {
	rows, ok := w.rows[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}
	sheet, err := ParseSheet(name, rows, w.layout, w.date1904)
	if err != nil {
		return nil, err
	}
	w.logger.Debug("Sheet parsed",
		slog.String("sheet", name),
		slog.Int("columns", len(sheet.Columns)),
		slog.Int("rows", len(sheet.Rows)))
	return sheet, nil
}

// ParseHeader extracts the header block from raw sheet rows. Rows missing
// from the block, and cells missing from short rows, yield empty labels.
func ParseHeader(rows [][]string, layout Layout) Header {
	width := 0
	for i := layout.HeaderStart; i < len(rows); i++ {
		if len(rows[i]) > width {
			width = len(rows[i])
		}
	}

	block := func(offset int) []string {
		idx := layout.HeaderStart + offset
		if idx < 0 || idx >= len(rows) {
			return nil
		}
		return rows[idx]
	}

	ids := uniqueIdentifiers(block(layout.IDRow), width)

	h := Header{}
	if len(ids) > 0 {
		h.DateColumn = ids[0]
		h.Columns = ids[1:]
	}

	n := len(h.Columns)
	h.Primary = labelsFrom(block(layout.PrimaryRow), n)
	h.Secondary = labelsFrom(block(layout.SecondaryRow), n)
	h.Frequency = labelsFrom(block(layout.FrequencyRow), n)
	h.Description = labelsFrom(block(layout.DescriptionRow), n)
	return h
}

// labelsFrom returns n trimmed labels taken from row, skipping the date cell.
func labelsFrom(row []string, n int) []string {
	out := make([]string, n)
	for i := range out {
		if i+1 < len(row) {
			out[i] = strings.TrimSpace(row[i+1])
		}
	}
	return out
}

// uniqueIdentifiers names every sheet column: blanks become "Unnamed: <i>"
// and repeats get ".1", ".2" suffixes.
func uniqueIdentifiers(row []string, width int) []string {
	ids := make([]string, width)
	seen := make(map[string]int, width)
	taken := make(map[string]bool, width)

	for i := 0; i < width; i++ {
		id := ""
		if i < len(row) {
			id = strings.TrimSpace(row[i])
		}
		if id == "" {
			id = fmt.Sprintf("Unnamed: %d", i)
		}

		candidate := id
		for taken[candidate] {
			seen[id]++
			candidate = fmt.Sprintf("%s.%d", id, seen[id])
		}
		taken[candidate] = true
		ids[i] = candidate
	}
	return ids
}

// ParseSheet turns raw rows into a Sheet. Data rows are every row below the
// identifier row whose first cell parses as a date; other cells become
// missing values when they are not numbers.
func ParseSheet(name string, rows [][]string, layout Layout, date1904 bool) (*domain.Sheet, error) {
	idRow := layout.idRowIndex()
	if len(rows) <= idRow {
		return nil, fmt.Errorf("%w: sheet %q has %d rows, need %d", ErrHeaderTooShort, name, len(rows), idRow+1)
	}

	h := ParseHeader(rows, layout)

	sheet := &domain.Sheet{
		Name:       name,
		DateColumn: h.DateColumn,
		Columns:    make([]domain.ColumnMeta, len(h.Columns)),
	}
	for i, id := range h.Columns {
		sheet.Columns[i] = domain.ColumnMeta{
			ID:          id,
			Position:    i,
			Primary:     labelOrUnlabeled(h.Primary[i]),
			Secondary:   labelOrUnlabeled(h.Secondary[i]),
			Frequency:   h.Frequency[i],
			Description: h.Description[i],
		}
	}

	for _, raw := range rows[idRow+1:] {
		if len(raw) == 0 {
			continue
		}
		date, ok := ParseDate(raw[0], date1904)
		if !ok {
			continue
		}
		row := domain.Row{Date: date, Values: make([]domain.NullFloat, len(h.Columns))}
		for i := range h.Columns {
			if i+1 < len(raw) {
				row.Values[i] = ParseNumber(raw[i+1])
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}

func labelOrUnlabeled(s string) string {
	if s == "" {
		return domain.UnlabeledCategory
	}
	return s
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006年1月2日",
	"2006.01.02",
	"01-02-06",
	time.RFC3339,
}

// maxExcelSerial is 9999-12-31 in the 1900 date system.
const maxExcelSerial = 2958465

// ParseDate reads a date cell: an Excel serial number (raw cell value) or one
// of the common text layouts.
func ParseDate(cell string, date1904 bool) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 || serial > maxExcelSerial || math.IsNaN(serial) {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber reads a numeric cell strictly. Anything else, NaN and ±Inf
// included, is missing.
func ParseNumber(cell string) domain.NullFloat {
	s := strings.TrimSpace(cell)
	if s == "" {
		return domain.NullFloat{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.NullFloat{}
	}
	return domain.Float(v)
}
