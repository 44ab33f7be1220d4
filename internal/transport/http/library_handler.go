package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "sheetpulse/internal/errors"
)

// LibraryHandler serves the workbooks stored in the data directory
type LibraryHandler struct {
	service      LibraryServiceInterface
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewLibraryHandler creates a new library handler
func NewLibraryHandler(service LibraryServiceInterface, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *LibraryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "library")),
	}
}

// Routes returns the library routes, mounted under /api/workbooks
func (h *LibraryHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/{name}", h.Open)
	return r
}

// List handles GET /api/workbooks
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	renderList(w, r, list)
}

// Open handles POST /api/workbooks/{name}, making the stored workbook the
// current one
func (h *LibraryHandler) Open(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(name); err == nil {
			name = decoded
		}
	}

	wb, err := h.service.Open(r.Context(), name)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "stored workbook opened", slog.String("name", wb.Name))
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   wb,
	})
}
