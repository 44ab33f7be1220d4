package charts

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"sheetpulse/pkg/contracts/domain"
)

// RasterRenderer draws a Spec as a PNG without a browser.
type RasterRenderer struct {
	Width  int
	Height int
}

// NewRasterRenderer returns a renderer with a 1000x800 canvas when width or
// height is unset.
func NewRasterRenderer(width, height int) *RasterRenderer {
	if width <= 0 {
		width = 1000
	}
	if height <= 0 {
		height = 800
	}
	return &RasterRenderer{Width: width, Height: height}
}

// ContentType implements Renderer
func (r *RasterRenderer) ContentType() string {
	return "image/png"
}

// Render implements Renderer
func (r *RasterRenderer) Render(w io.Writer, spec Spec) error {
	if !spec.HasData() {
		return ErrNoData
	}

	ch := chart.Chart{
		Title:  spec.Title,
		Width:  r.Width,
		Height: r.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 60},
		},
		XAxis: chart.XAxis{Name: spec.XAxisName},
		YAxis: chart.YAxis{
			Name:  spec.YAxisName,
			Range: &chart.ContinuousRange{Min: float64(spec.Axis.Min), Max: float64(spec.Axis.Max)},
			Ticks: axisTicks(spec),
		},
	}

	byDate := spec.Kind != domain.ChartSeasonal && len(spec.Dates) > 0
	if !byDate {
		ch.XAxis.Range = &chart.ContinuousRange{Min: 1, Max: float64(maxInt(len(spec.XLabels), 2))}
	} else {
		ch.XAxis.ValueFormatter = chart.TimeValueFormatterWithFormat("2006-01")
		if len(spec.Dates) == 1 {
			// A single date has no extent of its own.
			d := spec.Dates[0]
			ch.XAxis.Range = &chart.ContinuousRange{
				Min: chart.TimeToFloat64(d.AddDate(0, 0, -1)),
				Max: chart.TimeToFloat64(d.AddDate(0, 0, 1)),
			}
		}
	}

	var named []chart.Series
	for _, s := range spec.Series {
		style := chart.Style{
			StrokeColor: hexColor(colorOrDefault(s.Color)),
			StrokeWidth: 3,
		}
		for j, seg := range segments(s.Values) {
			name := ""
			if j == 0 {
				name = s.Name
			}
			var series chart.Series
			if byDate && len(spec.Dates) == len(s.Values) {
				series = timeSegment(name, style, spec.Dates, seg)
			} else {
				series = periodSegment(name, style, seg)
			}
			ch.Series = append(ch.Series, series)
			if j == 0 {
				named = append(named, series)
			}
		}
	}

	if len(named) > 1 {
		legendSource := ch
		legendSource.Series = named
		ch.Elements = []chart.Renderable{chart.Legend(&legendSource)}
	}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render png chart: %w", err)
	}
	return nil
}

// segment is a run of consecutive present values starting at index start.
type segment struct {
	start  int
	values []float64
}

// segments splits values at missing points so lines show gaps.
func segments(values []domain.NullFloat) []segment {
	var out []segment
	var cur *segment
	for i, v := range values {
		if !v.Valid {
			cur = nil
			continue
		}
		if cur == nil {
			out = append(out, segment{start: i})
			cur = &out[len(out)-1]
		}
		cur.values = append(cur.values, v.Float64)
	}
	return out
}

func timeSegment(name string, style chart.Style, dates []time.Time, seg segment) chart.Series {
	xs := make([]time.Time, len(seg.values))
	copy(xs, dates[seg.start:seg.start+len(seg.values)])
	return chart.TimeSeries{Name: name, Style: style, XValues: xs, YValues: seg.values}
}

func periodSegment(name string, style chart.Style, seg segment) chart.Series {
	xs := make([]float64, len(seg.values))
	for i := range xs {
		xs[i] = float64(seg.start + i + 1)
	}
	return chart.ContinuousSeries{Name: name, Style: style, XValues: xs, YValues: seg.values}
}

func axisTicks(spec Spec) []chart.Tick {
	step := spec.Axis.Interval
	if step < 1 {
		step = 1
	}
	var ticks []chart.Tick
	for v := spec.Axis.Min; v <= spec.Axis.Max; v += step {
		ticks = append(ticks, chart.Tick{Value: float64(v), Label: fmt.Sprintf("%d", v)})
	}
	return ticks
}

func hexColor(c string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(c, "#"))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
