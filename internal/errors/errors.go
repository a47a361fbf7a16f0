package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details any) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	ErrInvalidRequest   = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrMissingParameter = New(http.StatusBadRequest, "MISSING_PARAMETER", "Required parameter is missing")
	ErrNotFound         = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrPayloadTooLarge  = New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Uploaded payload exceeds the size limit")
	ErrInternalServer   = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// UploadParseError signals that an uploaded spreadsheet could not be read.
// The whole pipeline run aborts; no partial output is produced.
func UploadParseError(filename string, err error) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		"UPLOAD_PARSE_FAILED",
		fmt.Sprintf("File %q could not be parsed as a workbook", filename),
		err.Error(),
	)
}

// MissingColumnError signals that an aggregation step referenced a column
// the uploaded table does not have.
func MissingColumnError(err error) *APIError {
	return NewWithDetails(
		http.StatusUnprocessableEntity,
		"MISSING_COLUMN",
		"Uploaded table is missing a column required by the report",
		err.Error(),
	)
}

// DateParseError signals a Date value that did not match any accepted layout.
func DateParseError(err error) *APIError {
	return NewWithDetails(
		http.StatusUnprocessableEntity,
		"DATE_PARSE_FAILED",
		"Date column could not be normalized to calendar months",
		err.Error(),
	)
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   err,
	}
}

// Render implements the render.Renderer interface
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}
