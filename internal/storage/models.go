package storage

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultGenre is used when a row has no genre cell.
	DefaultGenre = "Unknown"
	// DefaultDescription is used when a row has no description cell.
	DefaultDescription = "No description"
)

// Status is the reading status of a book.
type Status int

const (
	StatusCurrentlyReading Status = 0
	StatusUnread           Status = 1
	StatusFinished         Status = 2
)

// String returns the display name of the status.
func (s Status) String() string {
	switch s {
	case StatusCurrentlyReading:
		return "Currently Reading"
	case StatusUnread:
		return "Unread"
	case StatusFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s >= StatusCurrentlyReading && s <= StatusFinished
}

// ParseStatus accepts either the integer code or a status name.
func ParseStatus(v string) (Status, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "reading", "currently reading", "currently-reading":
		return StatusCurrentlyReading, nil
	case "unread":
		return StatusUnread, nil
	case "finished", "read":
		return StatusFinished, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || !Status(n).Valid() {
		return 0, fmt.Errorf("unknown status %q", v)
	}
	return Status(n), nil
}

// Category is the broad kind of a book. Values outside the known set are kept as-is.
type Category int

const (
	CategoryNonFiction Category = 0
	CategoryFiction    Category = 1
	CategoryTextbook   Category = 2
)

// String returns the display name of the category, or "Unknown".
func (c Category) String() string {
	switch c {
	case CategoryNonFiction:
		return "Non-fiction"
	case CategoryFiction:
		return "Fiction"
	case CategoryTextbook:
		return "Textbook"
	default:
		return "Unknown"
	}
}

// ParseCategory accepts either the integer code or a category name.
func ParseCategory(v string) (Category, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "non-fiction", "nonfiction":
		return CategoryNonFiction, nil
	case "fiction":
		return CategoryFiction, nil
	case "textbook":
		return CategoryTextbook, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("unknown category %q", v)
	}
	return Category(n), nil
}

// Book is one library entry. ID equals the 1-based row the book occupies.
type Book struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Status      Status   `json:"status"`
	Category    Category `json:"category"`
	Genre       string   `json:"genre"`
	Description string   `json:"description"`
}

// Key returns the normalized (title, author) pair used for duplicate detection.
func (b Book) Key() string {
	return normalize(b.Title) + "\x00" + normalize(b.Author)
}

// AddResult reports the outcome of an append.
type AddResult struct {
	Success     bool   `json:"success"`
	IsDuplicate bool   `json:"isDuplicate"`
	Message     string `json:"message"`
	// ID is the row the book was written to. Zero when nothing was written.
	ID int `json:"id,omitempty"`
}

// RowIndex is a 1-based physical row position in the backing sheet.
type RowIndex int

// RowOf returns the row a book with the given id is expected to occupy.
func RowOf(id int) RowIndex {
	return RowIndex(id)
}

// ZeroBased returns the 0-based index used by row deletion.
func (r RowIndex) ZeroBased() int {
	return int(r) - 1
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
