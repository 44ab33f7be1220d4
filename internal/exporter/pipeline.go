package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"sheetpulse/internal/charts"
	"sheetpulse/pkg/contracts/domain"
)

// Item is one chart to place on a slide.
type Item struct {
	Sheet  string            `json:"sheet"`
	Column string            `json:"column"`
	Kind   domain.ChartKind  `json:"kind"`
	Window domain.YearWindow `json:"window"`
}

// Failure records an item that was skipped.
type Failure struct {
	Item Item
	Err  error
}

// Result summarizes a pipeline run.
type Result struct {
	Path      string
	Title     string
	Succeeded []Item
	Failed    []Failure
	Duration  time.Duration
}

// SpecSource builds the chart spec of one item.
type SpecSource interface {
	ChartSpec(ctx context.Context, sheet, column string, kind domain.ChartKind, window domain.YearWindow) (charts.Spec, error)
}

// Pipeline renders items to images and collects them into a deck. Items are
// processed one at a time; a failing item is logged and skipped.
type Pipeline struct {
	specs   SpecSource
	images  ImageRenderer
	workDir string
	logger  *slog.Logger
}

// NewPipeline creates a pipeline. workDir holds intermediate images; empty
// means the system temp directory.
func NewPipeline(specs SpecSource, images ImageRenderer, workDir string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		specs:   specs,
		images:  images,
		workDir: workDir,
		logger:  logger.With(slog.String("component", "export_pipeline")),
	}
}

// Run exports items into a deck at outPath. The deck is written with every
// slide that succeeded, even when none did. The returned error is non-nil
// only when the deck itself could not be written.
func (p *Pipeline) Run(ctx context.Context, title string, items []Item, outPath string) (*Result, error) {
	start := time.Now()
	result := &Result{Path: outPath, Title: title}

	if p.workDir != "" {
		if err := os.MkdirAll(p.workDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create export work directory: %w", err)
		}
	}
	tmpDir, err := os.MkdirTemp(p.workDir, "export-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create export work directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	p.logger.Info("Export started",
		slog.String("title", title),
		slog.Int("items", len(items)))

	deck := NewDeck(title)
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			p.fail(result, item, err)
			continue
		}
		if err := p.exportItem(ctx, deck, item, filepath.Join(tmpDir, fmt.Sprintf("slide-%03d.png", i+1))); err != nil {
			p.fail(result, item, err)
			continue
		}
		result.Succeeded = append(result.Succeeded, item)
	}

	if err := deck.Save(outPath); err != nil {
		return result, fmt.Errorf("failed to save deck: %w", err)
	}

	result.Duration = time.Since(start)
	p.logger.Info("Export finished",
		slog.String("path", outPath),
		slog.Int("succeeded", len(result.Succeeded)),
		slog.Int("failed", len(result.Failed)),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func (p *Pipeline) exportItem(ctx context.Context, deck *Deck, item Item, imagePath string) error {
	spec, err := p.specs.ChartSpec(ctx, item.Sheet, item.Column, item.Kind, item.Window)
	if err != nil {
		return fmt.Errorf("build chart: %w", err)
	}
	if err := p.images.RenderImage(ctx, spec, imagePath); err != nil {
		return fmt.Errorf("render image: %w", err)
	}
	if err := deck.AddSlide(Slide{Title: spec.Title, ImagePath: imagePath, Description: spec.Description}); err != nil {
		return fmt.Errorf("add slide: %w", err)
	}
	return nil
}

func (p *Pipeline) fail(result *Result, item Item, err error) {
	p.logger.Warn("Export item skipped",
		slog.String("sheet", item.Sheet),
		slog.String("column", item.Column),
		slog.String("kind", string(item.Kind)),
		slog.String("error", err.Error()))
	result.Failed = append(result.Failed, Failure{Item: item, Err: err})
}
