package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"sheetpulse/internal/config"
	apierrors "sheetpulse/internal/errors"
	mw "sheetpulse/internal/middleware"
	api "sheetpulse/pkg/contracts/api/v1"
)

// DeckContentType is the media type of a .pptx file
const DeckContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// ExportHandler serves the slide deck export endpoints
type ExportHandler struct {
	service      ExportServiceInterface
	validator    *mw.ValidationMiddleware
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(service ExportServiceInterface, validator *mw.ValidationMiddleware, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "export")),
	}
}

// Routes returns the export routes, mounted under /api/exports
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateExport)
	r.Get("/{id}", h.Download)
	return r
}

// CreateExport handles POST /api/exports
func (h *ExportHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req api.ExportRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "export requested",
		slog.String("request_id", reqID),
		slog.String("title", req.Title),
		slog.Int("items", len(req.Items)))

	resp, err := h.service.Export(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   resp,
	})
}

// Download handles GET /api/exports/{id}
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	f, err := os.Open(record.Path)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrExportNotFound)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", DeckContentType)
	w.Header().Set("Content-Disposition", attachment(record.Title+config.DeckExtension))
	http.ServeContent(w, r, record.ID+config.DeckExtension, record.CreatedAt, f)
}
