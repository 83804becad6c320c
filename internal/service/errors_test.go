package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"bookshelf/internal/storage"
	"bookshelf/internal/tabular"
)

func TestErrorTaxonomy(t *testing.T) {
	sentinels := map[string]error{
		"invalid input":     ErrInvalidInput,
		"not found":         ErrNotFound,
		"store unavailable": ErrStoreUnavailable,
		"write rejected":    ErrWriteRejected,
		"stale reference":   ErrStaleReference,
		"partial failure":   ErrWorkflowPartialFailure,
	}

	tests := []struct {
		name  string
		err   error
		match []string
	}{
		{
			name:  "validation error",
			err:   WrapError(&ValidationError{Field: "title", Message: "cannot be empty"}, "add"),
			match: []string{"invalid input"},
		},
		{
			name:  "missing row from storage",
			err:   WrapError(fmt.Errorf("row 9: %w", storage.ErrNotFound), "get book 9"),
			match: []string{"not found"},
		},
		{
			name:  "sheets timeout",
			err:   WrapError(fmt.Errorf("read Sheet1!A1:G: %w", tabular.ErrUnavailable), "list"),
			match: []string{"store unavailable"},
		},
		{
			name:  "rejected renumber write",
			err:   &RenumberError{Row: 2, Err: tabular.ErrWriteRejected},
			match: []string{"write rejected"},
		},
		{
			name:  "partial failure keeps its cause",
			err:   &PartialFailureError{Stage: StateReacquiringID, Err: tabular.ErrUnavailable},
			match: []string{"partial failure", "store unavailable"},
		},
		{
			name:  "stale snapshot",
			err:   fmt.Errorf("%w: row 4 holds another book", ErrStaleReference),
			match: []string{"stale reference"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := map[string]bool{}
			for _, m := range tt.match {
				want[m] = true
			}
			for name, sentinel := range sentinels {
				if got := errors.Is(tt.err, sentinel); got != want[name] {
					t.Errorf("errors.Is(%v, %s) = %v, want %v", tt.err, name, got, want[name])
				}
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "status", Message: "must be 0, 1 or 2"}
	if got, want := err.Error(), "validation error on field status: must be 0, 1 or 2"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrapError_Nil(t *testing.T) {
	if err := WrapError(nil, "remove book 3"); err != nil {
		t.Errorf("WrapError(nil) = %v, want nil", err)
	}
	if got := WrapError(ErrDuplicate, "add").Error(); got != "add: duplicate book" {
		t.Errorf("WrapError() = %q", got)
	}
}

func TestPartialFailureError(t *testing.T) {
	cause := fmt.Errorf("append: %w", tabular.ErrUnavailable)
	var err error = &PartialFailureError{
		Stage: StateReinserting,
		Book:  storage.Book{Title: "Dune"},
		Err:   cause,
	}
	err = WrapError(err, "change status")

	if !errors.Is(err, ErrWorkflowPartialFailure) {
		t.Error("should match ErrWorkflowPartialFailure")
	}
	if !errors.Is(err, tabular.ErrUnavailable) {
		t.Error("should match the underlying cause")
	}

	var partial *PartialFailureError
	if !errors.As(err, &partial) {
		t.Fatal("errors.As should find *PartialFailureError")
	}
	if partial.Stage != StateReinserting || partial.Book.Title != "Dune" {
		t.Errorf("got %+v", partial)
	}
	if !strings.Contains(err.Error(), "reinserting") {
		t.Errorf("Error() = %q, want stage name", err.Error())
	}
}

func TestRenumberError_Unwrap(t *testing.T) {
	err := fmt.Errorf("remove: %w", &RenumberError{Row: 3, Err: tabular.ErrWriteRejected})

	var renumberErr *RenumberError
	if !errors.As(err, &renumberErr) || renumberErr.Row != 3 {
		t.Fatalf("errors.As(%v) failed", err)
	}
	if !errors.Is(err, ErrWriteRejected) {
		t.Error("should match ErrWriteRejected")
	}
}
