package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// Cell offsets within a row.
const (
	colID = iota
	colTitle
	colAuthor
	colStatus
	colCategory
	colGenre
	colDescription

	rowWidth
)

// DecodeRow maps a raw row onto a Book. A row whose id, status or category
// does not parse as an integer is invalid; it is never filled with zero values.
func DecodeRow(row []string) (Book, error) {
	id, err := intCell(row, colID)
	if err != nil {
		return Book{}, fmt.Errorf("%w: id: %w", ErrInvalidRow, err)
	}
	status, err := intCell(row, colStatus)
	if err != nil {
		return Book{}, fmt.Errorf("%w: status: %w", ErrInvalidRow, err)
	}
	category, err := intCell(row, colCategory)
	if err != nil {
		return Book{}, fmt.Errorf("%w: category: %w", ErrInvalidRow, err)
	}

	return Book{
		ID:          id,
		Title:       cell(row, colTitle),
		Author:      cell(row, colAuthor),
		Status:      Status(status),
		Category:    Category(category),
		Genre:       withDefault(cell(row, colGenre), DefaultGenre),
		Description: withDefault(cell(row, colDescription), DefaultDescription),
	}, nil
}

// EncodeBook maps a Book onto a seven-cell row. Title and author are trimmed;
// status and category are written as their raw integers.
func EncodeBook(b Book) []string {
	row := make([]string, rowWidth)
	row[colID] = strconv.Itoa(b.ID)
	row[colTitle] = strings.TrimSpace(b.Title)
	row[colAuthor] = strings.TrimSpace(b.Author)
	row[colStatus] = strconv.Itoa(int(b.Status))
	row[colCategory] = strconv.Itoa(int(b.Category))
	row[colGenre] = b.Genre
	row[colDescription] = b.Description
	return row
}

// Validate checks the required fields.
func (b Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(b.Author) == "" {
		return fmt.Errorf("%w: author is required", ErrInvalidArgument)
	}
	return nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func intCell(row []string, i int) (int, error) {
	v := strings.TrimSpace(cell(row, i))
	if v == "" {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.Atoi(v)
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
