package exporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"sheetpulse/internal/charts"
)

// ErrEmptyImage is returned when a renderer produced no image bytes.
var ErrEmptyImage = errors.New("rendered image is empty")

// ImageRenderer writes a PNG of a chart to dest.
type ImageRenderer interface {
	RenderImage(ctx context.Context, spec charts.Spec, dest string) error
}

// ChromeOptions configure the headless browser used for screenshots.
type ChromeOptions struct {
	// Wait is the fixed delay between page load and capture, long enough for
	// the chart animation to finish.
	Wait     time.Duration
	Width    int
	Height   int
	Headless bool
	ExecPath string
	Timeout  time.Duration
	TempDir  string
	HTML     charts.HTMLOptions
}

// DefaultChromeOptions returns a 1000x800 headless capture after two seconds.
func DefaultChromeOptions() ChromeOptions {
	return ChromeOptions{
		Wait:     2 * time.Second,
		Width:    1000,
		Height:   800,
		Headless: true,
		Timeout:  60 * time.Second,
	}
}

// ChromeRenderer screenshots the interactive chart page in headless Chrome.
type ChromeRenderer struct {
	opts   ChromeOptions
	html   *charts.HTMLRenderer
	logger *slog.Logger
}

// NewChromeRenderer creates a renderer. The chart page is sized to the
// browser viewport.
func NewChromeRenderer(opts ChromeOptions, logger *slog.Logger) *ChromeRenderer {
	if opts.Width <= 0 {
		opts.Width = 1000
	}
	if opts.Height <= 0 {
		opts.Height = 800
	}
	if opts.HTML.Width == "" {
		opts.HTML.Width = fmt.Sprintf("%dpx", opts.Width)
	}
	if opts.HTML.Height == "" {
		opts.HTML.Height = fmt.Sprintf("%dpx", opts.Height)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromeRenderer{
		opts:   opts,
		html:   charts.NewHTMLRenderer(opts.HTML),
		logger: logger.With(slog.String("component", "chrome_renderer")),
	}
}

// RenderImage implements ImageRenderer
func (c *ChromeRenderer) RenderImage(ctx context.Context, spec charts.Spec, dest string) error {
	page, err := c.writePage(spec)
	if err != nil {
		return err
	}
	defer os.Remove(page)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.opts.Headless),
		chromedp.WindowSize(c.opts.Width, c.opts.Height),
	)
	if c.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.opts.ExecPath))
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	start := time.Now()
	var buf []byte
	if err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(c.opts.Width), int64(c.opts.Height)),
		chromedp.Navigate(fileURL(page)),
		chromedp.Sleep(c.opts.Wait),
		// Quality 100 captures PNG.
		chromedp.FullScreenshot(&buf, 100),
	); err != nil {
		return fmt.Errorf("screenshot chart %q: %w", spec.Title, err)
	}

	if err := writeImage(dest, buf); err != nil {
		return err
	}

	c.logger.Debug("Chart captured",
		slog.String("title", spec.Title),
		slog.String("dest", dest),
		slog.Int("bytes", len(buf)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (c *ChromeRenderer) writePage(spec charts.Spec) (string, error) {
	f, err := os.CreateTemp(c.opts.TempDir, "chart-*.html")
	if err != nil {
		return "", fmt.Errorf("failed to create chart page: %w", err)
	}
	if err := c.html.Render(f, spec); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write chart page: %w", err)
	}
	return f.Name(), nil
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// StaticRenderer draws charts with go-chart, without a browser.
type StaticRenderer struct {
	raster *charts.RasterRenderer
}

// NewStaticRenderer creates a renderer with the given canvas size.
func NewStaticRenderer(width, height int) *StaticRenderer {
	return &StaticRenderer{raster: charts.NewRasterRenderer(width, height)}
}

// RenderImage implements ImageRenderer
func (s *StaticRenderer) RenderImage(ctx context.Context, spec charts.Spec, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.raster.Render(&buf, spec); err != nil {
		return err
	}
	return writeImage(dest, buf.Bytes())
}

// writeImage writes data to dest and fails on empty output.
func writeImage(dest string, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyImage
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("image not written: %w", err)
	}
	if info.Size() == 0 {
		return ErrEmptyImage
	}
	return nil
}
