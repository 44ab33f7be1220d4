// Package exporter turns charts into files: PNG images (headless Chrome via
// chromedp, or go-chart without a browser), PowerPoint decks with one chart
// per slide, and CSV downloads of chart data.
//
// A Pipeline runs a list of items sequentially. An item that fails is logged
// and reported in the Result while the rest continue:
//
//	p := exporter.NewPipeline(dashboard, exporter.NewStaticRenderer(1000, 800), "", logger)
//	res, err := p.Run(ctx, "周报", items, "out/report.pptx")
package exporter
