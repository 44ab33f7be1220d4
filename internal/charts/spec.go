package charts

import (
	"errors"
	"io"
	"strconv"
	"time"

	"sheetpulse/pkg/contracts/domain"
)

// ErrNoData is returned by renderers that cannot draw a chart without points.
var ErrNoData = errors.New("chart has no data points")

// DefaultColor is used for series without a palette color.
const DefaultColor = "#5470C6"

const dateAxisName = "日期"

// Series is one named line.
type Series struct {
	Name   string             `json:"name"`
	Color  string             `json:"color,omitempty"`
	Values []domain.NullFloat `json:"values"`
}

// Spec is everything a renderer needs to draw one chart. Every series is
// parallel to XLabels.
type Spec struct {
	Kind        domain.ChartKind `json:"kind"`
	Column      string           `json:"column"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	XAxisName   string           `json:"x_axis_name"`
	YAxisName   string           `json:"y_axis_name"`
	XLabels     []string         `json:"x_labels"`
	Dates       []time.Time      `json:"dates,omitempty"`
	Periods     []int            `json:"periods,omitempty"`
	Series      []Series         `json:"series"`
	Axis        domain.AxisRange `json:"axis"`
}

// Renderer draws a Spec.
type Renderer interface {
	Render(w io.Writer, spec Spec) error
	ContentType() string
}

// FromTimeSeries builds the raw time-series chart of a column.
func FromTimeSeries(ts domain.TimeSeries, column domain.ColumnMeta) Spec {
	spec := Spec{
		Kind:        domain.ChartTimeSeries,
		Column:      column.ID,
		Title:       column.ID + " " + domain.ChartTimeSeries.Label(),
		Description: column.Description,
		XAxisName:   dateAxisName,
		YAxisName:   column.ID,
		XLabels:     make([]string, len(ts.Dates)),
		Dates:       ts.Dates,
		Axis:        ts.Axis,
	}
	values := make([]domain.NullFloat, len(ts.Values))
	for i, d := range ts.Dates {
		spec.XLabels[i] = d.Format("2006-01-02")
	}
	for i, v := range ts.Values {
		values[i] = domain.Float(v)
	}
	spec.Series = []Series{{Name: column.ID, Values: values}}
	return spec
}

// FromSeasonal builds the year-over-year overlay chart of a column, one
// series per year.
func FromSeasonal(sc domain.SeasonalChart, column domain.ColumnMeta) Spec {
	spec := Spec{
		Kind:        domain.ChartSeasonal,
		Column:      column.ID,
		Title:       column.ID + " " + domain.ChartSeasonal.Label(),
		Description: column.Description,
		XAxisName:   sc.Frequency.AxisName(),
		YAxisName:   column.ID,
		XLabels:     make([]string, len(sc.Periods)),
		Periods:     sc.Periods,
		Series:      make([]Series, 0, len(sc.Series)),
		Axis:        sc.Axis,
	}
	for i, p := range sc.Periods {
		spec.XLabels[i] = strconv.Itoa(p)
	}
	for _, s := range sc.Series {
		spec.Series = append(spec.Series, Series{
			Name:   strconv.Itoa(s.Year),
			Color:  s.Color,
			Values: s.Values,
		})
	}
	return spec
}

// HasData reports whether any series has a present value.
func (s Spec) HasData() bool {
	for _, series := range s.Series {
		for _, v := range series.Values {
			if v.Valid {
				return true
			}
		}
	}
	return false
}

func colorOrDefault(c string) string {
	if c == "" {
		return DefaultColor
	}
	return c
}
