// Package http contains the chi HTTP handlers for the merge and report
// endpoints.
package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mediasov/internal/dataset"
	apperrors "mediasov/internal/errors"
	"mediasov/internal/services"
)

// MergeHandler serves the upload-and-merge endpoint.
type MergeHandler struct {
	service        *services.MergeService
	errorHandler   *apperrors.ErrorHandler
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewMergeHandler creates a new merge handler
func NewMergeHandler(service *services.MergeService, errorHandler *apperrors.ErrorHandler, logger *slog.Logger, maxUploadBytes int64) *MergeHandler {
	return &MergeHandler{
		service:        service,
		errorHandler:   errorHandler,
		logger:         logger.With(slog.String("handler", "merge")),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the merge endpoint routes
func (h *MergeHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Merge)
	return r
}

// Merge accepts a multipart form with one or more xlsx files under the
// "files" field and responds with the merged workbook as an attachment.
func (h *MergeHandler) Merge(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.errorHandler.HandleError(w, r, multipartParseError(err))
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		h.errorHandler.HandleError(w, r, apperrors.ErrValidation("files", "at least one xlsx file is required"))
		return
	}

	uploads := make([]services.Upload, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			h.errorHandler.HandleError(w, r, apperrors.UploadParseError(fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.errorHandler.HandleError(w, r, apperrors.UploadParseError(fh.Filename, err))
			return
		}
		uploads = append(uploads, services.Upload{Filename: fh.Filename, Data: data})
	}

	out, err := h.service.CombineToWorkbook(r.Context(), uploads)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", dataset.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.MergedFilename))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// multipartParseError classifies a ParseMultipartForm failure: an oversized
// body is a 413, any other malformed multipart payload is a 400.
func multipartParseError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.ErrPayloadTooLarge
	}
	return apperrors.ErrInvalidRequest
}
