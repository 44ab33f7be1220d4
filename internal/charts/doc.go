// Package charts turns time-series and seasonal derivations into a
// renderer-neutral Spec and draws it either as an interactive ECharts page
// (go-echarts) or as a static PNG (go-chart).
//
//	spec := charts.FromSeasonal(seasonal, column)
//	err := charts.NewHTMLRenderer(charts.HTMLOptions{}).Render(w, spec)
package charts
