package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"bookshelf/internal/contextutil"
	"bookshelf/internal/service"
)

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
	// Refresh tells the client its view of the library is stale and must be reloaded.
	Refresh bool `json:"refresh,omitempty"`
}

// writeJSON writes v as the response body with the given status.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// handleServiceError maps service errors to HTTP status codes.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	var partial *service.PartialFailureError
	var renumberErr *service.RenumberError
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &partial):
		logger.ErrorContext(ctx, "status change lost a book", "stage", partial.Stage.String(), "title", partial.Book.Title, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(PartialFailureResponse{
			Error:   "The book was removed but could not be re-added. Refresh the library and add it again.",
			Refresh: true,
			Stage:   partial.Stage.String(),
			Book:    partial.Book,
		})
	case errors.As(err, &renumberErr):
		logger.ErrorContext(ctx, "ids left stale after delete", "row", int(renumberErr.Row), "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(ErrorResponse{
			Error:   "The book was removed but ids could not be updated. Refresh before making further changes.",
			Refresh: true,
		})
	case errors.As(err, &validationErr):
		logger.WarnContext(ctx, "validation error", "field", validationErr.Field, "error", err)
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidArgument):
		logger.WarnContext(ctx, "invalid request", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStaleReference):
		logger.WarnContext(ctx, "stale reference", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(ErrorResponse{
			Error:   "The library changed since it was loaded. Refresh and try again.",
			Refresh: true,
		})
	case errors.Is(err, service.ErrNotFound):
		logger.InfoContext(ctx, "book not found", "error", err)
		writeError(w, http.StatusNotFound, "Book not found")
	case errors.Is(err, service.ErrStoreUnavailable):
		logger.ErrorContext(ctx, "book store unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Book store unavailable")
	case errors.Is(err, service.ErrWriteRejected):
		logger.ErrorContext(ctx, "book store rejected write", "error", err)
		writeError(w, http.StatusBadGateway, "Book store rejected the change")
	case errors.Is(err, service.ErrSimilarDisabled):
		logger.WarnContext(ctx, "similar books requested but not configured")
		writeError(w, http.StatusServiceUnavailable, "Similar books are not enabled")
	case errors.Is(err, service.ErrExternalService):
		logger.ErrorContext(ctx, "external service error", "error", err)
		writeError(w, http.StatusBadGateway, "External service error")
	default:
		logger.ErrorContext(ctx, "unexpected error", "error", err)
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}
