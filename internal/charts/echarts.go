package charts

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"sheetpulse/pkg/contracts/domain"
)

// missingPoint leaves a gap in an ECharts line.
const missingPoint = "-"

// HTMLOptions size the interactive chart page.
type HTMLOptions struct {
	Width      string
	Height     string
	AssetsHost string
}

// HTMLRenderer draws a Spec as a standalone ECharts page.
type HTMLRenderer struct {
	opts HTMLOptions
}

// NewHTMLRenderer fills unset options with a 1000x800 canvas.
func NewHTMLRenderer(o HTMLOptions) *HTMLRenderer {
	if o.Width == "" {
		o.Width = "1000px"
	}
	if o.Height == "" {
		o.Height = "800px"
	}
	return &HTMLRenderer{opts: o}
}

// ContentType implements Renderer
func (r *HTMLRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render implements Renderer
func (r *HTMLRenderer) Render(w io.Writer, spec Spec) error {
	line := r.build(spec)
	if err := line.Render(w); err != nil {
		return fmt.Errorf("render html chart: %w", err)
	}
	return nil
}

func (r *HTMLRenderer) build(spec Spec) *charts.Line {
	line := charts.NewLine()

	init := opts.Initialization{
		PageTitle: spec.Title,
		Width:     r.opts.Width,
		Height:    r.opts.Height,
	}
	if r.opts.AssetsHost != "" {
		init.AssetsHost = r.opts.AssetsHost
	}

	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(init),
		charts.WithTitleOpts(opts.Title{Title: spec.Title}),
		charts.WithToolboxOpts(opts.Toolbox{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: spec.XAxisName}),
		charts.WithYAxisOpts(yAxis(spec)),
	}
	if spec.Kind == domain.ChartSeasonal {
		global = append(global, charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(true),
			Type:   "scroll",
			Bottom: "1%",
			Left:   "center",
		}))
	} else {
		global = append(global, charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "slider",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}))
	}
	line.SetGlobalOptions(global...)

	line.SetXAxis(spec.XLabels)
	for _, s := range spec.Series {
		data := make([]opts.LineData, len(s.Values))
		for i, v := range s.Values {
			if v.Valid {
				data[i] = opts.LineData{Value: v.Float64}
			} else {
				data[i] = opts.LineData{Value: missingPoint}
			}
		}

		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}),
		}
		if s.Color != "" {
			seriesOpts = append(seriesOpts,
				charts.WithLineStyleOpts(opts.LineStyle{Color: s.Color, Width: 3}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}),
			)
		}
		line.AddSeries(s.Name, data, seriesOpts...)
	}
	return line
}

// yAxis pins the gridline step to the computed interval.
func yAxis(spec Spec) opts.YAxis {
	y := opts.YAxis{
		Name:        spec.YAxisName,
		Min:         spec.Axis.Min,
		Max:         spec.Axis.Max,
		SplitNumber: splitNumber(spec),
	}
	if spec.Axis.Interval > 0 {
		y.MinInterval = float64(spec.Axis.Interval)
		y.MaxInterval = float64(spec.Axis.Interval)
	}
	return y
}

// splitNumber converts the axis interval into a gridline count.
func splitNumber(spec Spec) int {
	if spec.Axis.Interval <= 0 {
		return 1
	}
	n := (spec.Axis.Max - spec.Axis.Min) / spec.Axis.Interval
	if n < 1 {
		return 1
	}
	return n
}
