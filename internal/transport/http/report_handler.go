package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"mediasov/internal/dataset"
	apperrors "mediasov/internal/errors"
	"mediasov/internal/reports"
	"mediasov/internal/services"
)

var validate = validator.New()

// previewRequest carries the form fields of a preview call.
type previewRequest struct {
	Name string `validate:"required"`
}

// ReportHandler serves the summary table endpoints.
type ReportHandler struct {
	service        *services.ReportService
	errorHandler   *apperrors.ErrorHandler
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewReportHandler creates a new report handler
func NewReportHandler(service *services.ReportService, errorHandler *apperrors.ErrorHandler, logger *slog.Logger, maxUploadBytes int64) *ReportHandler {
	return &ReportHandler{
		service:        service,
		errorHandler:   errorHandler,
		logger:         logger.With(slog.String("handler", "report")),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the report endpoint routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/names", h.Names)
	r.Post("/preview", h.Preview)
	r.Post("/export", h.Export)
	return r
}

// NamesResponse lists the available summary tables.
type NamesResponse struct {
	Names []string `json:"names"`
}

// Render implements the render.Renderer interface
func (n *NamesResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// Names responds with the summary table names in display order.
func (h *ReportHandler) Names(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, &NamesResponse{Names: reports.Names()})
}

// PreviewResponse carries one summary table as JSON.
type PreviewResponse struct {
	Name  string         `json:"name"`
	Table *dataset.Table `json:"table"`
}

// Render implements the render.Renderer interface
func (p *PreviewResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// Preview accepts the merged workbook under the "file" field plus a "name"
// form value and responds with that summary table as JSON.
func (h *ReportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	name := r.FormValue("name")
	if err := validate.Struct(previewRequest{Name: name}); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.ErrValidation("name", "summary table name is required"))
		return
	}

	table, err := h.service.Preview(r.Context(), data, name)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapDomainError(filename, err))
		return
	}

	render.Render(w, r, &PreviewResponse{Name: name, Table: table})
}

// Export accepts the merged workbook under the "file" field plus an optional
// "entity_info" form value and responds with the styled report workbook.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	entityInfo := r.FormValue("entity_info")

	out, err := h.service.Export(r.Context(), data, entityInfo)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapDomainError(filename, err))
		return
	}

	w.Header().Set("Content-Type", dataset.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ExportFilename))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// readUpload pulls the single "file" field out of the multipart form. It
// writes the error response itself and reports success through ok.
func (h *ReportHandler) readUpload(w http.ResponseWriter, r *http.Request) (data []byte, filename string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.errorHandler.HandleError(w, r, multipartParseError(err))
		return nil, "", false
	}

	f, fh, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.ErrValidation("file", "a merged xlsx file is required"))
		return nil, "", false
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.UploadParseError(fh.Filename, err))
		return nil, "", false
	}
	return data, fh.Filename, true
}

// mapDomainError translates domain sentinels into API errors.
func (h *ReportHandler) mapDomainError(filename string, err error) error {
	switch {
	case errors.Is(err, dataset.ErrParse):
		return apperrors.UploadParseError(filename, err)
	case errors.Is(err, dataset.ErrMissingColumn):
		return apperrors.MissingColumnError(err)
	case errors.Is(err, reports.ErrDateParse):
		return apperrors.DateParseError(err)
	case errors.Is(err, services.ErrUnknownSummary):
		return apperrors.ErrValidation("name", err.Error())
	default:
		return err
	}
}
