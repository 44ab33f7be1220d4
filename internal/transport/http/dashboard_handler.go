package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "sheetpulse/internal/errors"
	mw "sheetpulse/internal/middleware"
	"sheetpulse/internal/services"
	api "sheetpulse/pkg/contracts/api/v1"
	"sheetpulse/pkg/contracts/domain"
)

// DefaultMaxUploadBytes bounds workbook uploads when no limit is configured.
const DefaultMaxUploadBytes = 32 << 20

// DashboardHandler serves the workbook, label hierarchy and chart endpoints
type DashboardHandler struct {
	service        DashboardServiceInterface
	validator      *mw.ValidationMiddleware
	query          *mw.QueryParamValidator
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, validator *mw.ValidationMiddleware, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &DashboardHandler{
		service:        service,
		validator:      validator,
		query:          mw.NewQueryParamValidator(errorHandler),
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "dashboard")),
	}
}

// Routes returns the dashboard routes, mounted under /api
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/workbook", h.GetWorkbook)
	r.Post("/workbook", h.UploadWorkbook)

	r.Get("/sheets", h.ListSheets)
	r.Route("/sheets/{sheet}", func(r chi.Router) {
		r.Use(h.SheetCtx)
		r.Get("/primary", h.PrimaryLabels)
		r.Get("/secondary", h.SecondaryLabels)
		r.Get("/columns", h.Columns)
		r.Get("/chart", h.Chart)
	})

	return r
}

type sheetKey struct{}

// SheetCtx decodes the sheet path parameter into the request context
func (h *DashboardHandler) SheetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sheet := chi.URLParam(r, "sheet")
		if r.URL.RawPath != "" {
			if decoded, err := url.PathUnescape(sheet); err == nil {
				sheet = decoded
			}
		}
		if sheet == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("sheet", "sheet is required"))
			return
		}
		ctx := context.WithValue(r.Context(), sheetKey{}, sheet)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sheetFromRequest(r *http.Request) string {
	sheet, _ := r.Context().Value(sheetKey{}).(string)
	return sheet
}

// GetWorkbook handles GET /api/workbook
func (h *DashboardHandler) GetWorkbook(w http.ResponseWriter, r *http.Request) {
	wb, err := h.service.Current(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   wb,
	})
}

// UploadWorkbook handles POST /api/workbook with a multipart "file" field
func (h *DashboardHandler) UploadWorkbook(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			h.errorHandler.HandleError(w, r, apierrors.MissingParameter("file"))
		default:
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		}
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	h.logger.InfoContext(r.Context(), "workbook upload received",
		slog.String("request_id", reqID),
		slog.String("filename", name),
		slog.Int64("size", header.Size))

	wb, err := h.service.Upload(r.Context(), file, name)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   wb,
	})
}

// ListSheets handles GET /api/sheets
func (h *DashboardHandler) ListSheets(w http.ResponseWriter, r *http.Request) {
	sheets, err := h.service.SheetNames(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	renderList(w, r, sheets)
}

// PrimaryLabels handles GET /api/sheets/{sheet}/primary
func (h *DashboardHandler) PrimaryLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := h.service.PrimaryLabels(r.Context(), sheetFromRequest(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	renderList(w, r, labels)
}

// SecondaryLabels handles GET /api/sheets/{sheet}/secondary?primary=
func (h *DashboardHandler) SecondaryLabels(w http.ResponseWriter, r *http.Request) {
	primary, ok := h.query.Required(w, r, "primary")
	if !ok {
		return
	}
	labels, err := h.service.SecondaryLabels(r.Context(), sheetFromRequest(r), primary)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	renderList(w, r, labels)
}

// Columns handles GET /api/sheets/{sheet}/columns?primary=&secondary=
func (h *DashboardHandler) Columns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := api.ColumnsRequest{
		Sheet:     sheetFromRequest(r),
		Primary:   q.Get("primary"),
		Secondary: q.Get("secondary"),
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	cols, err := h.service.Columns(r.Context(), req.Sheet, req.Primary, req.Secondary)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	renderList(w, r, cols)
}

// Chart handles GET /api/sheets/{sheet}/chart. format selects the chart spec
// as JSON (default), an interactive HTML page, a PNG image or the chart data
// as CSV.
func (h *DashboardHandler) Chart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := api.ChartRequest{
		Sheet:  sheetFromRequest(r),
		Column: q.Get("column"),
		Kind:   q.Get("kind"),
		Window: q.Get("window"),
		Format: q.Get("format"),
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// Both parse without error once validation passed.
	kind, _ := domain.ParseChartKind(req.Kind)
	window := domain.YearWindow("")
	if req.Window != "" {
		window, _ = domain.ParseYearWindow(req.Window)
	}

	if req.Format == "" || req.Format == services.FormatJSON {
		spec, err := h.service.ChartSpec(r.Context(), req.Sheet, req.Column, kind, window)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		render.JSON(w, r, map[string]interface{}{
			"status": "success",
			"data":   spec,
		})
		return
	}

	chart, err := h.service.RenderChart(r.Context(), req.Sheet, req.Column, kind, window, req.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", chart.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(chart.Body)))
	w.Header().Set("Cache-Control", "no-store")
	if req.Format == services.FormatCSV {
		w.Header().Set("Content-Disposition", attachment(req.Column+".csv"))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(chart.Body); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write chart",
			slog.String("error", err.Error()))
	}
}

func renderList[T any](w http.ResponseWriter, r *http.Request, items []T) {
	if items == nil {
		items = []T{}
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   items,
		"count":  len(items),
	})
}

// attachment builds a Content-Disposition header with an ASCII fallback and
// the UTF-8 file name.
func attachment(name string) string {
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		asciiFallback(name), url.PathEscape(name))
}

func asciiFallback(name string) string {
	ext := filepath.Ext(name)
	out := make([]rune, 0, len(name))
	for _, c := range name[:len(name)-len(ext)] {
		if c < 0x20 || c > 0x7e || c == '"' || c == '\\' {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return "download" + ext
	}
	return string(out) + ext
}
