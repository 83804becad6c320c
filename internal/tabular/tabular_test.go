package tabular

import "testing"

func TestRange_A1(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		want string
	}{
		{
			name: "full column span open-ended",
			r:    Range{FromColumn: "A", ToColumn: "G"},
			want: "Sheet1!A:G",
		},
		{
			name: "single row",
			r:    Range{FromRow: 3, ToRow: 3, FromColumn: "A", ToColumn: "G"},
			want: "Sheet1!A3:G3",
		},
		{
			name: "id column from row",
			r:    Range{FromRow: 5, FromColumn: "A", ToColumn: "A"},
			want: "Sheet1!A5:A",
		},
		{
			name: "title and author columns",
			r:    Range{FromColumn: "B", ToColumn: "C"},
			want: "Sheet1!B:C",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.A1("Sheet1"); got != tt.want {
				t.Errorf("A1() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColumnIndex(t *testing.T) {
	tests := []struct {
		col     string
		want    int
		wantErr bool
	}{
		{col: "A", want: 0},
		{col: "g", want: 6},
		{col: "Z", want: 25},
		{col: "AA", want: 26},
		{col: "", wantErr: true},
		{col: "A1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.col, func(t *testing.T) {
			got, err := ColumnIndex(tt.col)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ColumnIndex(%q) expected error, got nil", tt.col)
				}
				return
			}
			if err != nil {
				t.Fatalf("ColumnIndex(%q) unexpected error: %v", tt.col, err)
			}
			if got != tt.want {
				t.Errorf("ColumnIndex(%q) = %v, want %v", tt.col, got, tt.want)
			}
			if letter := ColumnLetter(got); letter != toUpper(tt.col) {
				t.Errorf("ColumnLetter(%d) = %v, want %v", got, letter, toUpper(tt.col))
			}
		})
	}
}

func toUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func TestLocation(t *testing.T) {
	loc := DefaultLocation("sheet-id", "Books")

	if err := loc.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if loc.Width() != 7 {
		t.Errorf("Width() = %v, want 7", loc.Width())
	}
	if got := loc.Columns(1, 2, 0).A1(loc.SheetName); got != "Books!B:C" {
		t.Errorf("Columns(1, 2, 0) = %v, want Books!B:C", got)
	}
	if got := loc.Rows(4, 4).A1(loc.SheetName); got != "Books!A4:G4" {
		t.Errorf("Rows(4, 4) = %v, want Books!A4:G4", got)
	}

	if loc.SheetID != -1 {
		t.Errorf("SheetID = %d, want -1 so the tab is resolved by name", loc.SheetID)
	}

	moved, err := loc.StartingAt("c")
	if err != nil {
		t.Fatalf("StartingAt() error = %v", err)
	}
	if moved.FirstColumn != "C" || moved.LastColumn != "I" || moved.Width() != RecordWidth {
		t.Errorf("StartingAt(c) = %s:%s", moved.FirstColumn, moved.LastColumn)
	}
	if got := moved.Columns(0, 0, 5).A1(moved.SheetName); got != "Books!C5:C" {
		t.Errorf("moved id column = %v, want Books!C5:C", got)
	}
	if _, err := loc.StartingAt("3"); err == nil {
		t.Error("StartingAt() expected error for a non-letter column")
	}

	bad := Location{SheetName: "Books", FirstColumn: "G", LastColumn: "A"}
	if err := bad.Validate(); err == nil {
		t.Error("Validate() expected error for reversed columns")
	}
	if err := (Location{FirstColumn: "A", LastColumn: "G"}).Validate(); err == nil {
		t.Error("Validate() expected error for empty sheet name")
	}
}

func TestTrimRows(t *testing.T) {
	rows := [][]string{
		{"1", "A", ""},
		{},
		{"3", "", ""},
		{"", ""},
	}
	got := trimRows(rows)

	if len(got) != 3 {
		t.Fatalf("trimRows() len = %d, want 3", len(got))
	}
	if len(got[0]) != 2 || len(got[1]) != 0 || len(got[2]) != 1 {
		t.Errorf("trimRows() = %v", got)
	}
}
