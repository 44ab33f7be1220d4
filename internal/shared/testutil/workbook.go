package testutil

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetFixture describes one sheet in the dashboard layout: a banner row, the
// six-row header block and the data rows. Header slices include the date
// column cell at index 0.
type SheetFixture struct {
	Name        string
	Banner      string
	Primary     []string
	Secondary   []string
	Unit        []string
	IDs         []string
	Frequency   []string
	Description []string
	Rows        [][]any
}

// NewWorkbookFile builds an in-memory workbook from the fixtures.
func NewWorkbookFile(t *testing.T, sheets ...SheetFixture) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			t.Fatalf("new sheet %q: %v", s.Name, err)
		}

		banner := s.Banner
		if banner == "" {
			banner = s.Name
		}
		header := [][]string{{banner}, s.Primary, s.Secondary, s.Unit, s.IDs, s.Frequency, s.Description}
		for r, cells := range header {
			writeRow(t, f, s.Name, r+1, stringsToAny(cells))
		}
		for r, cells := range s.Rows {
			writeRow(t, f, s.Name, len(header)+r+1, cells)
		}
	}
	return f
}

// WriteWorkbook saves the fixtures to a temp .xlsx file and returns its path.
func WriteWorkbook(t *testing.T, sheets ...SheetFixture) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	if err := NewWorkbookFile(t, sheets...).SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// WorkbookBytes returns the fixtures as .xlsx bytes.
func WorkbookBytes(t *testing.T, sheets ...SheetFixture) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := NewWorkbookFile(t, sheets...).Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// PriceSheet is a two-year fixture with a daily, a weekly and a monthly
// column, split over two primary labels.
func PriceSheet() SheetFixture {
	s := SheetFixture{
		Name:        "价格",
		Banner:      "价格数据",
		Primary:     []string{"", "现货", "现货", "期货"},
		Secondary:   []string{"", "华东", "华东", "主力"},
		Unit:        []string{"", "元/吨", "元/吨", "元/吨"},
		IDs:         []string{"指标名称", "华东现货价", "华东周均价", "主力月均价"},
		Frequency:   []string{"频率", "日", "周", "月"},
		Description: []string{"描述", "华东地区现货日价格", "华东地区周均价", "期货主力合约月均价"},
	}
	for _, year := range []int{2022, 2023} {
		for m := 1; m <= 12; m++ {
			d := time.Date(year, time.Month(m), 15, 0, 0, 0, 0, time.UTC)
			base := float64(year-2020)*100 + float64(m)
			s.Rows = append(s.Rows, []any{d, base, base + 0.5, base * 2})
		}
	}
	return s
}

func stringsToAny(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

func writeRow(t *testing.T, f *excelize.File, sheet string, row int, cells []any) {
	t.Helper()
	if len(cells) == 0 {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		t.Fatalf("cell name: %v", err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		t.Fatalf("write row %d of %q: %v", row, sheet, err)
	}
}
