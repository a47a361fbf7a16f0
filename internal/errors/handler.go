package errors

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"mediasov/internal/infrastructure"
)

// ErrorHandler provides centralized error handling for HTTP handlers.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger.With(slog.String("component", "error_handler")),
	}
}

// HandleError logs the error with request context and renders it. Errors
// that are not APIErrors become a generic 500.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := infrastructure.GetTraceID(r.Context())
	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = ErrInternalServer
	}
	render.Render(w, r, NewErrorResponse(apiErr))
}
