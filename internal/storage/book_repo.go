package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookshelf/internal/contextutil"
	"bookshelf/internal/tabular"
)

// BookRepo stores books in a tabular sheet where a book's id is its row number.
// Every call opens a fresh handle through the Opener; nothing is cached.
type BookRepo struct {
	open     tabular.Opener
	location tabular.Location
	timeout  time.Duration
}

// NewBookRepo creates a new BookRepo. A zero timeout leaves calls bounded only by ctx.
func NewBookRepo(open tabular.Opener, location tabular.Location, timeout time.Duration) *BookRepo {
	return &BookRepo{
		open:     open,
		location: location,
		timeout:  timeout,
	}
}

// withClient opens a handle and runs fn under the store timeout.
// Deadline expiry is reported as tabular.ErrUnavailable.
func (r *BookRepo) withClient(ctx context.Context, fn func(ctx context.Context, c tabular.Client) error) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	client, err := r.open(ctx)
	if err == nil {
		err = fn(ctx, client)
	}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, tabular.ErrUnavailable) {
		return fmt.Errorf("%w: %w", tabular.ErrUnavailable, err)
	}
	return err
}

// GetByID reads exactly row id and returns the book stored there.
// Returns ErrNotFound if the row is empty, cannot be decoded, or holds a
// different id than requested.
func (r *BookRepo) GetByID(ctx context.Context, id int) (*Book, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if id < 1 {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	var rows [][]string
	err := r.withClient(ctx, func(ctx context.Context, c tabular.Client) error {
		var err error
		rows, err = c.ReadRange(ctx, r.location.Rows(id, id))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read row %d: %w", id, err)
	}

	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrNotFound
	}

	book, err := DecodeRow(rows[0])
	if err != nil {
		logger.WarnContext(ctx, "undecodable row", "row", id, "error", err)
		return nil, fmt.Errorf("%w: row %d: %w", ErrNotFound, id, err)
	}
	if book.ID != id {
		logger.WarnContext(ctx, "row id does not match position", "row", id, "stored_id", book.ID)
		return nil, fmt.Errorf("%w: row %d holds id %d", ErrNotFound, id, book.ID)
	}

	return &book, nil
}

// Append writes the book to the next row unless a book with the same title and
// author already exists. The id written is always the prior row count + 1.
//
// The duplicate check and the write are separate calls; a concurrent writer
// between them can still produce a duplicate.
func (r *BookRepo) Append(ctx context.Context, book Book) (AddResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := book.Validate(); err != nil {
		return AddResult{Message: "Invalid book data provided."}, err
	}

	var result AddResult
	err := r.withClient(ctx, func(ctx context.Context, c tabular.Client) error {
		rows, err := c.ReadRange(ctx, r.location.Columns(colID, colAuthor, 0))
		if err != nil {
			return fmt.Errorf("failed to read titles: %w", err)
		}

		key := book.Key()
		for _, row := range rows {
			title, author := cell(row, colTitle), cell(row, colAuthor)
			if title == "" || author == "" {
				continue
			}
			if (Book{Title: title, Author: author}).Key() == key {
				result = AddResult{
					IsDuplicate: true,
					Message:     fmt.Sprintf("Book %q by %s already exists.", strings.TrimSpace(book.Title), strings.TrimSpace(book.Author)),
				}
				return nil
			}
		}

		id := len(rows) + 1
		if book.ID != 0 && book.ID != id {
			logger.WarnContext(ctx, "supplied id disagrees with next row, using row position", "supplied_id", book.ID, "row", id)
		}
		book.ID = id

		if err := c.AppendRows(ctx, r.location.Rows(0, 0), [][]string{EncodeBook(book)}); err != nil {
			return fmt.Errorf("failed to append book: %w", err)
		}

		result = AddResult{Success: true, Message: "Book added successfully.", ID: id}
		return nil
	})
	if err != nil {
		return AddResult{Message: err.Error()}, err
	}

	if result.Success {
		logger.InfoContext(ctx, "book appended", "id", result.ID)
	}
	return result, nil
}

// Remove deletes row id and renumbers every row that shifted up.
// If the delete fails nothing is renumbered. If the renumber fails after a
// successful delete a *RenumberError is returned.
func (r *BookRepo) Remove(ctx context.Context, id int) error {
	logger := contextutil.LoggerFromContext(ctx)

	if id < 1 {
		return fmt.Errorf("%w: row number must be positive, got %d", ErrInvalidArgument, id)
	}
	row := RowOf(id)

	return r.withClient(ctx, func(ctx context.Context, c tabular.Client) error {
		if err := c.DeleteRows(ctx, row.ZeroBased(), row.ZeroBased()+1); err != nil {
			return fmt.Errorf("failed to delete row %d: %w", id, err)
		}
		logger.InfoContext(ctx, "row deleted", "row", id)

		if err := r.renumber(ctx, c, row); err != nil {
			logger.ErrorContext(ctx, "renumber after delete failed", "row", id, "error", err)
			return &RenumberError{Row: row, Err: err}
		}
		return nil
	})
}

// Renumber rewrites the ids of every row from row from downwards so that each
// id equals its row number. Renumber(ctx, 1) repairs the whole sheet.
func (r *BookRepo) Renumber(ctx context.Context, from RowIndex) error {
	if from < 1 {
		return fmt.Errorf("%w: row %d", ErrInvalidArgument, from)
	}
	return r.withClient(ctx, func(ctx context.Context, c tabular.Client) error {
		return r.renumber(ctx, c, from)
	})
}

func (r *BookRepo) renumber(ctx context.Context, c tabular.Client, from RowIndex) error {
	idColumn := r.location.Columns(colID, colID, int(from))

	current, err := c.ReadRange(ctx, idColumn)
	if err != nil {
		return fmt.Errorf("failed to read ids: %w", err)
	}
	if len(current) == 0 {
		return nil
	}

	column, changed := Renumber(current, from)
	if !changed {
		return nil
	}

	idColumn.ToRow = int(from) + len(column) - 1
	if err := c.UpdateRange(ctx, idColumn, column); err != nil {
		return fmt.Errorf("failed to write ids: %w", err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "ids renumbered", "from", int(from), "rows", len(column))
	return nil
}

// Search returns books whose title or author contains query, case-insensitively,
// in row order. Rows that cannot be decoded are skipped.
func (r *BookRepo) Search(ctx context.Context, query string) ([]Book, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Book{}, nil
	}

	books, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]Book, 0)
	for _, book := range books {
		if strings.Contains(strings.ToLower(book.Title), q) || strings.Contains(strings.ToLower(book.Author), q) {
			matches = append(matches, book)
		}
	}
	return matches, nil
}

// List returns every decodable book in row order. Rows with fewer than three
// cells or that fail to decode are skipped.
func (r *BookRepo) List(ctx context.Context) ([]Book, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var rows [][]string
	err := r.withClient(ctx, func(ctx context.Context, c tabular.Client) error {
		var err error
		rows, err = c.ReadRange(ctx, r.location.Rows(0, 0))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read books: %w", err)
	}

	books := make([]Book, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		if len(row) < 3 {
			skipped++
			continue
		}
		book, err := DecodeRow(row)
		if err != nil {
			skipped++
			continue
		}
		books = append(books, book)
	}

	if skipped > 0 {
		logger.DebugContext(ctx, "skipped malformed rows", "count", skipped)
	}
	return books, nil
}

// Rows returns the raw rows in physical order, including ones that do not decode.
func (r *BookRepo) Rows(ctx context.Context) ([][]string, error) {
	var rows [][]string
	err := r.withClient(ctx, func(ctx context.Context, c tabular.Client) error {
		var err error
		rows, err = c.ReadRange(ctx, r.location.Rows(0, 0))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

// LatestID returns the id the next appended book will receive: the number of
// populated rows in the id column plus one.
func (r *BookRepo) LatestID(ctx context.Context) (int, error) {
	var rows [][]string
	err := r.withClient(ctx, func(ctx context.Context, c tabular.Client) error {
		var err error
		rows, err = c.ReadRange(ctx, r.location.Columns(colID, colID, 0))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return len(rows) + 1, nil
}
