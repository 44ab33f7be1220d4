package dataprocessing

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetpulse/internal/shared/testutil"
	"sheetpulse/pkg/contracts/domain"
)

func TestOpenWorkbook(t *testing.T) {
	path := testutil.WriteWorkbook(t, testutil.PriceSheet())
	logger, handler := testutil.NewTestLogger(t)

	wb, err := OpenWorkbook(path, WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, []string{"价格"}, wb.SheetNames())
	testutil.AssertLogAttr(t, handler, "component", "workbook")

	sheet, err := wb.Sheet("价格")
	require.NoError(t, err)

	assert.Equal(t, "指标名称", sheet.DateColumn)
	require.Len(t, sheet.Columns, 3)
	assert.Equal(t, domain.ColumnMeta{
		ID:          "华东现货价",
		Position:    0,
		Primary:     "现货",
		Secondary:   "华东",
		Frequency:   "日",
		Description: "华东地区现货日价格",
	}, sheet.Columns[0])
	assert.Equal(t, "期货", sheet.Columns[2].Primary)
	assert.Equal(t, "月", sheet.Columns[2].Frequency)

	// The frequency and description rows do not parse as dates and are dropped.
	require.Len(t, sheet.Rows, 24)
	first := sheet.Rows[0]
	assert.Equal(t, "2022-01-15", first.Date.Format("2006-01-02"))
	assert.Equal(t, []domain.NullFloat{domain.Float(201), domain.Float(201.5), domain.Float(402)}, first.Values)
	assert.Equal(t, "2023-12-15", sheet.Rows[23].Date.Format("2006-01-02"))
}

func TestReadWorkbook(t *testing.T) {
	data := testutil.WorkbookBytes(t, testutil.PriceSheet(), testutil.SheetFixture{
		Name:      "库存",
		Primary:   []string{"", "社会库存"},
		Secondary: []string{"", "全国"},
		IDs:       []string{"日期", "总库存"},
		Frequency: []string{"", "周度"},
		Rows: [][]any{
			{"2024-01-05", 10},
			{"2024-01-12", "n/a"},
		},
	})

	wb, err := ReadWorkbook(bytes.NewReader(data), "upload.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "upload.xlsx", wb.Name)
	assert.Equal(t, []string{"价格", "库存"}, wb.SheetNames())

	sheet, err := wb.Sheet("库存")
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 2)
	assert.True(t, sheet.Rows[0].Values[0].Valid)
	assert.False(t, sheet.Rows[1].Values[0].Valid, "non-numeric cells become missing")

	_, err = wb.Sheet("nope")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestParseHeader(t *testing.T) {
	rows := [][]string{
		{"banner"},
		{"", "A"},
		{"", "x", "y"},
		{},
		{"date", "c1", "", "c1", "c1"},
		{"", "日", "周"},
	}

	h := ParseHeader(rows, DefaultLayout())

	assert.Equal(t, "date", h.DateColumn)
	assert.Equal(t, []string{"c1", "Unnamed: 2", "c1.1", "c1.2"}, h.Columns)
	assert.Equal(t, []string{"A", "", "", ""}, h.Primary, "short header rows pad with empty labels")
	assert.Equal(t, []string{"x", "y", "", ""}, h.Secondary)
	assert.Equal(t, []string{"日", "周", "", ""}, h.Frequency)
	assert.Equal(t, []string{"", "", "", ""}, h.Description, "missing description row")
}

func TestParseSheet(t *testing.T) {
	t.Run("unlabeled columns", func(t *testing.T) {
		rows := [][]string{
			{"banner"},
			{"", "P"},
			{},
			{},
			{"date", "a", "b"},
			{"freq", "月", "月"},
			{"desc", "A", "B"},
			{"2024-01-31", "1", "x"},
			{"not a date", "2", "3"},
			{"45351", "4"},
		}

		sheet, err := ParseSheet("s", rows, DefaultLayout(), false)
		require.NoError(t, err)

		assert.Equal(t, "P", sheet.Columns[0].Primary)
		assert.Equal(t, domain.UnlabeledCategory, sheet.Columns[1].Primary)
		assert.Equal(t, domain.UnlabeledCategory, sheet.Columns[0].Secondary)

		require.Len(t, sheet.Rows, 2)
		assert.Equal(t, []domain.NullFloat{domain.Float(1), {}}, sheet.Rows[0].Values)
		assert.Equal(t, "2024-02-29", sheet.Rows[1].Date.Format("2006-01-02"))
		assert.Equal(t, []domain.NullFloat{domain.Float(4), {}}, sheet.Rows[1].Values)
	})

	t.Run("header too short", func(t *testing.T) {
		_, err := ParseSheet("s", [][]string{{"banner"}, {"p"}}, DefaultLayout(), false)
		assert.ErrorIs(t, err, ErrHeaderTooShort)
	})

	t.Run("custom layout without banner", func(t *testing.T) {
		layout := DefaultLayout()
		layout.HeaderStart = 0
		rows := [][]string{{"", "P"}, {"", "S"}, {}, {"date", "v"}, {"2024/3/1", "9"}}

		sheet, err := ParseSheet("s", rows, layout, false)
		require.NoError(t, err)
		require.Len(t, sheet.Rows, 1)
		assert.Equal(t, "v", sheet.Columns[0].ID)
		assert.Equal(t, 9.0, sheet.Rows[0].Values[0].Float64)
	})
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		cell     string
		date1904 bool
		want     string
		ok       bool
	}{
		{name: "iso", cell: "2023-07-04", want: "2023-07-04", ok: true},
		{name: "slashes", cell: "2023/7/4", want: "2023-07-04", ok: true},
		{name: "chinese", cell: "2023年7月4日", want: "2023-07-04", ok: true},
		{name: "with time", cell: "2023-07-04 10:30:00", want: "2023-07-04", ok: true},
		{name: "excel serial", cell: "45111", want: "2023-07-04", ok: true},
		{name: "excel serial with fraction", cell: "45111.5", want: "2023-07-04", ok: true},
		{name: "excel serial 1904", cell: "43649", date1904: true, want: "2023-07-04", ok: true},
		{name: "empty", cell: "  ", ok: false},
		{name: "text", cell: "频率", ok: false},
		{name: "negative serial", cell: "-3", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.cell, tt.date1904)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		cell string
		want domain.NullFloat
	}{
		{cell: "1.25", want: domain.Float(1.25)},
		{cell: " -3 ", want: domain.Float(-3)},
		{cell: "1e3", want: domain.Float(1000)},
		{cell: "", want: domain.NullFloat{}},
		{cell: "1,000", want: domain.NullFloat{}},
		{cell: "NaN", want: domain.NullFloat{}},
		{cell: "inf", want: domain.NullFloat{}},
		{cell: "abc", want: domain.NullFloat{}},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumber(tt.cell))
		})
	}
}

func TestSheetObservationsRoundTrip(t *testing.T) {
	wb, err := OpenWorkbook(testutil.WriteWorkbook(t, testutil.PriceSheet()))
	require.NoError(t, err)
	sheet, err := wb.Sheet("价格")
	require.NoError(t, err)

	obs, ok := sheet.Observations("主力月均价")
	require.True(t, ok)
	require.Len(t, obs, 24)
	assert.Equal(t, time.March, obs[2].Date.Month())
	assert.Equal(t, 406.0, obs[2].Value.Float64)
}
