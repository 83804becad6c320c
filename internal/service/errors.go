package service

import (
	"errors"
	"fmt"

	"bookshelf/internal/storage"
	"bookshelf/internal/tabular"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrExternalService is returned when an external service call fails.
	ErrExternalService = errors.New("external service error")

	// ErrNotFound is returned when no book occupies the requested id.
	ErrNotFound = storage.ErrNotFound
	// ErrInvalidArgument is returned for input rejected before any store call.
	ErrInvalidArgument = storage.ErrInvalidArgument
	// ErrInvalidRow is returned when a stored row cannot be decoded.
	ErrInvalidRow = storage.ErrInvalidRow
	// ErrStoreUnavailable is returned on transport, authentication or timeout failures of the store.
	ErrStoreUnavailable = tabular.ErrUnavailable
	// ErrWriteRejected is returned when the store refuses a write.
	ErrWriteRejected = tabular.ErrWriteRejected

	// ErrStaleReference is returned when the caller's view of a book no longer matches the store.
	ErrStaleReference = errors.New("stale reference")
	// ErrDuplicate is returned when a re-insert is rejected as a duplicate.
	ErrDuplicate = errors.New("duplicate book")
	// ErrWorkflowPartialFailure is matched by every *PartialFailureError.
	ErrWorkflowPartialFailure = errors.New("status change partially failed")
	// ErrSimilarDisabled is returned when no similar-books index is configured.
	ErrSimilarDisabled = errors.New("similar books index not configured")
)

// RenumberError is returned by Remove when the row was deleted but ids below it were not repaired.
type RenumberError = storage.RenumberError

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// PartialFailureError reports a status change that removed the original row
// but did not write its replacement. Book holds the record as it was before
// deletion, with the requested status applied, so it can be restored.
type PartialFailureError struct {
	Stage WorkflowState
	Book  storage.Book
	Err   error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("status change of %q failed while %s after the original was deleted: %v", e.Book.Title, e.Stage, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// Is makes every PartialFailureError match ErrWorkflowPartialFailure.
func (e *PartialFailureError) Is(target error) bool {
	return target == ErrWorkflowPartialFailure
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
