package service

import (
	"context"
	"errors"
	"fmt"

	"bookshelf/internal/contextutil"
	"bookshelf/internal/storage"
)

// WorkflowState is a step of the status-change workflow.
type WorkflowState int

const (
	StateIdle WorkflowState = iota
	StateDeleting
	StateReacquiringID
	StateReinserting
	StateDone
	StatePartialFailure
)

func (s WorkflowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDeleting:
		return "deleting"
	case StateReacquiringID:
		return "reacquiring id"
	case StateReinserting:
		return "reinserting"
	case StateDone:
		return "done"
	case StatePartialFailure:
		return "partial failure"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Expected is the caller's snapshot of the book it believes lives at the id.
type Expected struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// StatusChangeRequest asks for the book at ID to move to Status.
type StatusChangeRequest struct {
	ID     int
	Status storage.Status
	// Expected, when set, must match the title and author stored at ID.
	Expected *Expected
}

// StatusChangeResult describes a completed status change.
type StatusChangeResult struct {
	// Book is the record as stored after the change, carrying its new id.
	Book       storage.Book
	PreviousID int
	// AlreadySet is true when the book already had the requested status and nothing was written.
	AlreadySet bool
	Trace      []WorkflowState
}

// StatusChangeWorkflow changes a book's status by deleting its row and
// appending a copy with the new status at the end of the sheet.
//
// The workflow is not atomic. Once the delete has succeeded there is no
// compensating step: any later failure leaves the book missing from the store
// and is reported as a *PartialFailureError carrying the lost record.
type StatusChangeWorkflow struct {
	store BookStore
	state WorkflowState
	trace []WorkflowState
}

// NewStatusChangeWorkflow creates a workflow in the Idle state.
func NewStatusChangeWorkflow(store BookStore) *StatusChangeWorkflow {
	return &StatusChangeWorkflow{
		store: store,
		state: StateIdle,
		trace: []WorkflowState{StateIdle},
	}
}

// State returns the current state.
func (w *StatusChangeWorkflow) State() WorkflowState {
	return w.state
}

// Trace returns every state the workflow has entered, in order.
func (w *StatusChangeWorkflow) Trace() []WorkflowState {
	return append([]WorkflowState(nil), w.trace...)
}

func (w *StatusChangeWorkflow) enter(ctx context.Context, s WorkflowState) {
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "status change state", "from", w.state.String(), "to", s.String())
	w.state = s
	w.trace = append(w.trace, s)
}

func (w *StatusChangeWorkflow) fail(ctx context.Context, book storage.Book, err error) error {
	stage := w.state
	w.enter(ctx, StatePartialFailure)
	contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "status change lost a book",
		"stage", stage.String(), "title", book.Title, "author", book.Author, "error", err)
	return &PartialFailureError{Stage: stage, Book: book, Err: err}
}

// Run executes the workflow once. A workflow must not be reused.
func (w *StatusChangeWorkflow) Run(ctx context.Context, req StatusChangeRequest) (StatusChangeResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if w.state != StateIdle || len(w.trace) > 1 {
		return StatusChangeResult{}, fmt.Errorf("status change workflow already ran (state %s)", w.state)
	}
	if !req.Status.Valid() {
		return StatusChangeResult{}, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %d", int(req.Status))}
	}
	if req.ID < 1 {
		return StatusChangeResult{}, fmt.Errorf("%w: id %d", ErrStaleReference, req.ID)
	}

	current, err := w.store.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return StatusChangeResult{}, fmt.Errorf("%w: no book at id %d: %w", ErrStaleReference, req.ID, err)
		}
		return StatusChangeResult{}, WrapError(err, "failed to look up book")
	}

	if req.Expected != nil {
		want := storage.Book{Title: req.Expected.Title, Author: req.Expected.Author}
		if want.Key() != current.Key() {
			logger.WarnContext(ctx, "book at id changed since caller read it",
				"id", req.ID, "expected_title", req.Expected.Title, "stored_title", current.Title)
			return StatusChangeResult{}, fmt.Errorf("%w: id %d now holds %q", ErrStaleReference, req.ID, current.Title)
		}
	}

	if current.Status == req.Status {
		w.enter(ctx, StateDone)
		return StatusChangeResult{Book: *current, PreviousID: req.ID, AlreadySet: true, Trace: w.Trace()}, nil
	}

	replacement := *current
	replacement.Status = req.Status

	w.enter(ctx, StateDeleting)
	if err := w.store.Remove(ctx, req.ID); err != nil {
		var renumberErr *RenumberError
		if errors.As(err, &renumberErr) {
			return StatusChangeResult{}, w.fail(ctx, replacement, err)
		}
		// Nothing was deleted.
		w.enter(ctx, StateIdle)
		return StatusChangeResult{}, WrapError(err, "failed to delete book")
	}

	w.enter(ctx, StateReacquiringID)
	nextID, err := w.store.LatestID(ctx)
	if err != nil {
		return StatusChangeResult{}, w.fail(ctx, replacement, err)
	}
	replacement.ID = nextID

	w.enter(ctx, StateReinserting)
	res, err := w.store.Append(ctx, replacement)
	if err != nil {
		return StatusChangeResult{}, w.fail(ctx, replacement, err)
	}
	if res.IsDuplicate || !res.Success {
		return StatusChangeResult{}, w.fail(ctx, replacement, fmt.Errorf("%w: %s", ErrDuplicate, res.Message))
	}
	if res.ID != 0 && res.ID != nextID {
		logger.WarnContext(ctx, "book reinserted at a different id than reported", "expected_id", nextID, "id", res.ID)
		replacement.ID = res.ID
	}

	w.enter(ctx, StateDone)
	logger.InfoContext(ctx, "status changed", "previous_id", req.ID, "id", replacement.ID, "status", replacement.Status.String())
	return StatusChangeResult{Book: replacement, PreviousID: req.ID, Trace: w.Trace()}, nil
}
