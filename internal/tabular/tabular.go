// Package tabular talks to a row-oriented spreadsheet resource.
//
// Rows are addressed by their 1-based physical position. DeleteRows is the only
// operation that moves rows; every later row shifts up by the deleted count.
package tabular

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_client.go -package=mocks bookshelf/internal/tabular Client

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable is returned on transport, authentication or timeout failures.
	ErrUnavailable = errors.New("tabular store unavailable")
	// ErrWriteRejected is returned when the store refuses a write request.
	ErrWriteRejected = errors.New("tabular write rejected")
)

// Client provides row operations against one sheet of one tabular resource.
type Client interface {
	// ReadRange returns the rows of r, from r.FromRow through the last row holding
	// any value in the column span. Trailing empty cells of a row are trimmed and
	// blank rows inside the span come back as empty slices.
	ReadRange(ctx context.Context, r Range) ([][]string, error)
	// AppendRows adds rows after the last populated row of the sheet.
	AppendRows(ctx context.Context, r Range, rows [][]string) error
	// UpdateRange overwrites cells in place, starting at r.FromRow and r.FromColumn.
	UpdateRange(ctx context.Context, r Range, rows [][]string) error
	// DeleteRows removes the 0-based rows [start, endExclusive) and shifts later rows up.
	DeleteRows(ctx context.Context, start, endExclusive int) error
}

// Opener opens a fresh authenticated handle to the configured sheet.
type Opener func(ctx context.Context) (Client, error)

// Location identifies the sheet and column span holding the data.
type Location struct {
	SpreadsheetID string
	SheetName     string
	// SheetID is the numeric tab id used by row deletion. Negative means resolve by name.
	SheetID     int64
	FirstColumn string
	LastColumn  string
}

// RecordWidth is the number of columns a book row spans.
const RecordWidth = 7

// DefaultLocation returns the seven-column A:G layout on the named sheet. The
// numeric tab id is resolved from sheetName on first use.
func DefaultLocation(spreadsheetID, sheetName string) Location {
	return Location{
		SpreadsheetID: spreadsheetID,
		SheetName:     sheetName,
		SheetID:       -1,
		FirstColumn:   "A",
		LastColumn:    "G",
	}
}

// StartingAt returns l moved so that its span of the same width begins at col.
func (l Location) StartingAt(col string) (Location, error) {
	first, err := ColumnIndex(col)
	if err != nil {
		return l, fmt.Errorf("first column: %w", err)
	}
	width := l.Width()
	l.FirstColumn = ColumnLetter(first)
	l.LastColumn = ColumnLetter(first + width - 1)
	return l, nil
}

// Validate checks that the location can be used to build ranges.
func (l Location) Validate() error {
	if strings.TrimSpace(l.SheetName) == "" {
		return fmt.Errorf("sheet name is required")
	}
	first, err := ColumnIndex(l.FirstColumn)
	if err != nil {
		return fmt.Errorf("first column: %w", err)
	}
	last, err := ColumnIndex(l.LastColumn)
	if err != nil {
		return fmt.Errorf("last column: %w", err)
	}
	if last < first {
		return fmt.Errorf("last column %s precedes first column %s", l.LastColumn, l.FirstColumn)
	}
	return nil
}

// Width returns the number of columns in the location's span.
func (l Location) Width() int {
	first, _ := ColumnIndex(l.FirstColumn)
	last, _ := ColumnIndex(l.LastColumn)
	return last - first + 1
}

// Column returns the letter of the column at offset i within the span.
func (l Location) Column(i int) string {
	first, _ := ColumnIndex(l.FirstColumn)
	return ColumnLetter(first + i)
}

// Rows returns a range covering the full column span from row from through row to.
// A zero to leaves the range open-ended.
func (l Location) Rows(from, to int) Range {
	return Range{FromRow: from, ToRow: to, FromColumn: l.FirstColumn, ToColumn: l.LastColumn}
}

// Columns returns a range over the columns at offsets [first, last] of the span,
// starting at row from and open-ended.
func (l Location) Columns(first, last, from int) Range {
	return Range{FromRow: from, FromColumn: l.Column(first), ToColumn: l.Column(last)}
}

// Range addresses a rectangle of cells. Rows are 1-based; FromRow 0 means row 1
// and ToRow 0 means "to the end of the sheet".
type Range struct {
	FromRow    int
	ToRow      int
	FromColumn string
	ToColumn   string
}

// A1 formats the range in A1 notation on the given sheet, e.g. "Sheet1!A5:A".
func (r Range) A1(sheet string) string {
	var b strings.Builder
	b.WriteString(sheet)
	b.WriteString("!")
	b.WriteString(r.FromColumn)
	if r.FromRow > 0 {
		fmt.Fprintf(&b, "%d", r.FromRow)
	}
	b.WriteString(":")
	b.WriteString(r.ToColumn)
	if r.ToRow > 0 {
		fmt.Fprintf(&b, "%d", r.ToRow)
	}
	return b.String()
}

// StartRow returns the first 1-based row of the range.
func (r Range) StartRow() int {
	if r.FromRow < 1 {
		return 1
	}
	return r.FromRow
}

// ColumnIndex converts a column letter ("A", "G", "AA") to a 0-based index.
func ColumnIndex(col string) (int, error) {
	col = strings.ToUpper(strings.TrimSpace(col))
	if col == "" {
		return 0, fmt.Errorf("empty column")
	}
	n := 0
	for _, c := range col {
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("invalid column %q", col)
		}
		n = n*26 + int(c-'A'+1)
	}
	return n - 1, nil
}

// ColumnLetter converts a 0-based column index to its letter form.
func ColumnLetter(idx int) string {
	var out []byte
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		out = append([]byte{byte('A' + (n-1)%26)}, out...)
	}
	return string(out)
}

// trimRows drops trailing empty cells from each row and trailing empty rows.
func trimRows(rows [][]string) [][]string {
	for i, row := range rows {
		end := len(row)
		for end > 0 && row[end-1] == "" {
			end--
		}
		rows[i] = row[:end]
	}
	end := len(rows)
	for end > 0 && len(rows[end-1]) == 0 {
		end--
	}
	return rows[:end]
}
