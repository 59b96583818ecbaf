package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/chartstash/chartstash-server/internal/service"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps service errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use our error shape.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			switch {
			case errors.Is(err, service.ErrChartNotFound):
				return &APIError{
					status:  http.StatusNotFound,
					Code:    "not_found",
					Message: err.Error(),
				}
			case errors.Is(err, service.ErrUnmatched):
				// Definitive: ChartHub does not know this chart.
				return &APIError{
					status:  http.StatusNotFound,
					Code:    "unmatched",
					Message: err.Error(),
				}
			case errors.Is(err, service.ErrUnavailable):
				return &APIError{
					status:  http.StatusServiceUnavailable,
					Code:    "unavailable",
					Message: err.Error(),
				}
			}
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
	}
}

// statusToCode maps HTTP status codes to error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "validation"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}
