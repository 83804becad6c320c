package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no book occupies the requested row.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidArgument is returned for input rejected before any store call.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidRow is returned when a stored row cannot be decoded.
	ErrInvalidRow = errors.New("invalid row")
)

// RenumberError is returned by Remove when the row was deleted but the ids of
// the rows below it could not be rewritten.
type RenumberError struct {
	Row RowIndex
	Err error
}

func (e *RenumberError) Error() string {
	return fmt.Sprintf("row %d deleted but ids were not renumbered: %v", e.Row, e.Err)
}

func (e *RenumberError) Unwrap() error {
	return e.Err
}
