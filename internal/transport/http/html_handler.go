package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"sheetpulse/pkg/contracts/domain"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

// Option is one entry of a select box on the dashboard page
type Option struct {
	Value string
	Label string
}

// PageData is passed to the dashboard page template
type PageData struct {
	Title         string
	Version       string
	DefaultWindow string
	Kinds         []Option
	Windows       []Option
}

// DefaultPageData lists every chart kind and year window with its label.
func DefaultPageData(version string, defaultWindow domain.YearWindow) PageData {
	if defaultWindow == "" {
		defaultWindow = domain.YearWindow5
	}
	data := PageData{
		Title:         "SheetPulse",
		Version:       version,
		DefaultWindow: string(defaultWindow),
	}
	for _, k := range []domain.ChartKind{domain.ChartTimeSeries, domain.ChartSeasonal} {
		data.Kinds = append(data.Kinds, Option{Value: string(k), Label: k.Label()})
	}
	for _, w := range []domain.YearWindow{domain.YearWindow5, domain.YearWindow8, domain.YearWindowAll} {
		data.Windows = append(data.Windows, Option{Value: string(w), Label: w.Label()})
	}
	return data
}

// PageHandler serves the dashboard page. An index.html in the web directory
// overrides the built-in page.
type PageHandler struct {
	tmpl   *template.Template
	data   PageData
	logger *slog.Logger
}

// NewPageHandler parses the dashboard template
func NewPageHandler(webDir string, data PageData, logger *slog.Logger) (*PageHandler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("handler", "page"))

	var (
		tmpl *template.Template
		err  error
	)
	override := filepath.Join(webDir, "index.html")
	if _, statErr := os.Stat(override); webDir != "" && statErr == nil {
		tmpl, err = template.ParseFiles(override)
		logger.Info("Using dashboard page from web directory", slog.String("path", override))
	} else {
		tmpl, err = template.ParseFS(templateFS, "templates/dashboard.html")
	}
	if err != nil {
		return nil, err
	}
	return &PageHandler{tmpl: tmpl, data: data, logger: logger}, nil
}

// ServeDashboard handles GET /
func (h *PageHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, h.data); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render dashboard page",
			slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}
