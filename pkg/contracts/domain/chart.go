package domain

import (
	"fmt"
	"strings"
	"time"
)

// AxisRange is an integer value-axis range with its gridline interval.
type AxisRange struct {
	Min      int `json:"min"`
	Max      int `json:"max"`
	Interval int `json:"interval" validate:"min=1"`
}

// ChartKind selects the rendering path for a column.
type ChartKind string

const (
	ChartTimeSeries ChartKind = "timeseries"
	ChartSeasonal   ChartKind = "seasonal"
)

// ParseChartKind accepts the API names and the dashboard labels.
func ParseChartKind(s string) (ChartKind, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", "timeseries", "time_series", "时间序列图":
		return ChartTimeSeries, nil
	case "seasonal", "季节性图表":
		return ChartSeasonal, nil
	}
	return "", fmt.Errorf("unknown chart kind %q", s)
}

// Label is the dashboard label of the chart kind.
func (k ChartKind) Label() string {
	if k == ChartSeasonal {
		return "季节性图表"
	}
	return "时间序列图"
}

// YearWindow limits how many of the most recent years a seasonal chart shows.
type YearWindow string

const (
	YearWindow5   YearWindow = "5y"
	YearWindow8   YearWindow = "8y"
	YearWindowAll YearWindow = "all"
)

// ParseYearWindow accepts the API names and the dashboard labels. An empty
// string selects the five-year window.
func ParseYearWindow(s string) (YearWindow, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", "5y", "5", "5年":
		return YearWindow5, nil
	case "8y", "8", "8年":
		return YearWindow8, nil
	case "all", "全部":
		return YearWindowAll, nil
	}
	return "", fmt.Errorf("unknown year window %q", s)
}

// Limit is the number of years kept, or 0 for all of them.
func (w YearWindow) Limit() int {
	switch w {
	case YearWindow5:
		return 5
	case YearWindow8:
		return 8
	default:
		return 0
	}
}

// Label is the dashboard label of the window.
func (w YearWindow) Label() string {
	switch w {
	case YearWindow5:
		return "5年"
	case YearWindow8:
		return "8年"
	default:
		return "全部"
	}
}

// TimeSeries is the raw chart path: present values sorted by date.
type TimeSeries struct {
	Column string      `json:"column"`
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
	Axis   AxisRange   `json:"axis"`
}

// SeasonalSeries is one year of a seasonal overlay. Values[i] belongs to
// period i+1.
type SeasonalSeries struct {
	Year   int         `json:"year"`
	Color  string      `json:"color"`
	Values []NullFloat `json:"values"`
}

// SeasonalChart is the year-over-year overlay of one column.
type SeasonalChart struct {
	Column    string           `json:"column"`
	Frequency Frequency        `json:"frequency"`
	Window    YearWindow       `json:"window"`
	Periods   []int            `json:"periods"`
	Series    []SeasonalSeries `json:"series"`
	Axis      AxisRange        `json:"axis"`
}
