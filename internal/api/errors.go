package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/evekey-api/internal/domain"
	"github.com/phrazzld/evekey-api/internal/store"
	"github.com/phrazzld/evekey-api/internal/task"
)

// MapErrorToStatusCode maps service errors to appropriate HTTP status codes.
// Unrecognized errors map to 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrKeyNotFound),
		errors.Is(err, store.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for the error. The raw
// error text never reaches the client; it may carry SQL fragments or
// credential material.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		// Validation messages are written for users and carry no internals.
		return err.Error()
	case errors.Is(err, store.ErrKeyNotFound):
		return "API key not found"
	case errors.Is(err, store.ErrAccountNotFound):
		return "Account not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"
	case errors.Is(err, task.ErrQueueFull):
		return "Service busy, try again later."
	case errors.Is(err, task.ErrQueueClosed):
		return "Service is shutting down."
	default:
		return "An unexpected error occurred"
	}
}
