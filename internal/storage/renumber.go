package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// Renumber computes the replacement id column for rows that start at physical
// row start. Every cell is set to its expected id, start, start+1, ..., whatever
// it held before. changed is false when the column already matched.
func Renumber(column [][]string, start RowIndex) (out [][]string, changed bool) {
	out = make([][]string, len(column))
	for i, row := range column {
		want := strconv.Itoa(int(start) + i)
		if strings.TrimSpace(cell(row, 0)) != want {
			changed = true
		}
		out[i] = []string{want}
	}
	return out, changed
}

// DeleteAndRenumber returns the table that results from deleting the book at
// row d and restoring positional ids below it. table is not modified.
func DeleteAndRenumber(table [][]string, d RowIndex) ([][]string, error) {
	if d < 1 || int(d) > len(table) {
		return nil, fmt.Errorf("%w: row %d outside table of %d rows", ErrInvalidArgument, d, len(table))
	}

	out := make([][]string, 0, len(table)-1)
	for i, row := range table {
		if i == d.ZeroBased() {
			continue
		}
		out = append(out, append([]string(nil), row...))
	}

	below := out[d.ZeroBased():]
	ids := make([][]string, len(below))
	for i, row := range below {
		ids[i] = []string{cell(row, colID)}
	}
	column, _ := Renumber(ids, d)
	for i, row := range below {
		if len(row) == 0 {
			below[i] = []string{column[i][0]}
			continue
		}
		row[colID] = column[i][0]
	}
	return out, nil
}

// Move is one row whose id changes when a row above it is deleted.
type Move struct {
	// OldID is the id cell as currently stored, which may have drifted from the row.
	OldID string
	NewID int
	Title string
}

// PreviewDelete reports the row at d and the id changes DeleteAndRenumber would
// make to the physical table. Rows whose stored id already matches are omitted.
func PreviewDelete(table [][]string, d RowIndex) (removed []string, moves []Move, err error) {
	after, err := DeleteAndRenumber(table, d)
	if err != nil {
		return nil, nil, err
	}

	for i, row := range after[d.ZeroBased():] {
		before := table[d.ZeroBased()+1+i]
		oldID := strings.TrimSpace(cell(before, colID))
		if oldID == row[colID] {
			continue
		}
		newID, _ := strconv.Atoi(row[colID])
		moves = append(moves, Move{OldID: oldID, NewID: newID, Title: cell(before, colTitle)})
	}
	return table[d.ZeroBased()], moves, nil
}
