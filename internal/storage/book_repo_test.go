package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"bookshelf/internal/tabular"
	"bookshelf/internal/tabular/mocks"
)

var testLocation = tabular.DefaultLocation("local", "Sheet1")

func newTestRepo(t *testing.T, seed [][]string) (*BookRepo, *tabular.SQLiteClient) {
	t.Helper()

	db, err := tabular.OpenSQLite(filepath.Join(t.TempDir(), "books.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := tabular.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	client := tabular.NewSQLiteClient(db, testLocation.SheetName)
	if len(seed) > 0 {
		if err := client.AppendRows(context.Background(), testLocation.Rows(0, 0), seed); err != nil {
			t.Fatalf("AppendRows() error = %v", err)
		}
	}

	return NewBookRepo(client.Opener(), testLocation, 5*time.Second), client
}

func readTable(t *testing.T, client tabular.Client) [][]string {
	t.Helper()
	rows, err := client.ReadRange(context.Background(), testLocation.Rows(0, 0))
	if err != nil {
		t.Fatalf("ReadRange() error = %v", err)
	}
	return rows
}

func TestBookRepo_GetByID(t *testing.T) {
	repo, _ := newTestRepo(t, [][]string{
		{"1", "A", "B", "1", "0", "G", "D"},
		{"5", "Drifted", "X", "1", "0"},
		{"3", "C", "D", "bad", "0"},
		{"4", "E", "F", "2", "1"},
	})
	ctx := context.Background()

	tests := []struct {
		name    string
		id      int
		want    *Book
		wantErr error
	}{
		{
			name: "existing",
			id:   1,
			want: &Book{ID: 1, Title: "A", Author: "B", Status: StatusUnread, Category: CategoryNonFiction, Genre: "G", Description: "D"},
		},
		{
			name: "defaults applied",
			id:   4,
			want: &Book{ID: 4, Title: "E", Author: "F", Status: StatusFinished, Category: CategoryFiction, Genre: DefaultGenre, Description: DefaultDescription},
		},
		{name: "id drifted from position", id: 2, wantErr: ErrNotFound},
		{name: "undecodable row", id: 3, wantErr: ErrNotFound},
		{name: "past the end", id: 10, wantErr: ErrNotFound},
		{name: "zero id", id: 0, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetByID(ctx, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetByID(%d) error = %v, want %v", tt.id, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetByID(%d) unexpected error: %v", tt.id, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GetByID(%d) = %+v, want %+v", tt.id, got, tt.want)
			}
		})
	}
}

func TestBookRepo_Append(t *testing.T) {
	seed := [][]string{
		{"1", "The Hobbit", "J.R.R. Tolkien", "1", "1", "Fantasy", "D"},
		{"2", "Dune", "Frank Herbert", "2", "1", "SF", "D"},
	}

	tests := []struct {
		name          string
		book          Book
		wantSuccess   bool
		wantDuplicate bool
		wantRows      int
		wantErr       error
	}{
		{
			name:        "new book gets next row",
			book:        Book{ID: 99, Title: " Foo ", Author: " Bar ", Status: StatusUnread},
			wantSuccess: true,
			wantRows:    3,
		},
		{
			name:          "duplicate ignoring case and whitespace",
			book:          Book{Title: "  the hobbit", Author: "j.r.r. TOLKIEN "},
			wantDuplicate: true,
			wantRows:      2,
		},
		{
			name:        "same title different author",
			book:        Book{Title: "Dune", Author: "Someone Else"},
			wantSuccess: true,
			wantRows:    3,
		},
		{
			name:     "missing title",
			book:     Book{Author: "X"},
			wantErr:  ErrInvalidArgument,
			wantRows: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, client := newTestRepo(t, seed)

			got, err := repo.Append(context.Background(), tt.book)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Append() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Append() unexpected error: %v", err)
			}

			if got.Success != tt.wantSuccess || got.IsDuplicate != tt.wantDuplicate {
				t.Errorf("Append() = %+v, want success=%v duplicate=%v", got, tt.wantSuccess, tt.wantDuplicate)
			}
			if got.Message == "" {
				t.Error("Append() returned empty message")
			}

			table := readTable(t, client)
			if len(table) != tt.wantRows {
				t.Fatalf("row count = %d, want %d", len(table), tt.wantRows)
			}
			if tt.wantSuccess {
				if got.ID != len(seed)+1 {
					t.Errorf("Append() id = %d, want %d", got.ID, len(seed)+1)
				}
				last := table[len(table)-1]
				want := EncodeBook(Book{ID: len(seed) + 1, Title: tt.book.Title, Author: tt.book.Author, Status: tt.book.Status, Category: tt.book.Category})
				if !reflect.DeepEqual(last[:5], want[:5]) {
					t.Errorf("appended row = %v, want prefix %v", last, want[:5])
				}
			}
		})
	}
}

func TestBookRepo_Append_Trims(t *testing.T) {
	repo, _ := newTestRepo(t, nil)
	ctx := context.Background()

	res, err := repo.Append(ctx, Book{Title: " Foo ", Author: " Bar "})
	if err != nil || !res.Success {
		t.Fatalf("Append() = %+v, %v", res, err)
	}

	got, err := repo.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "Foo" || got.Author != "Bar" {
		t.Errorf("stored title/author = %q/%q, want Foo/Bar", got.Title, got.Author)
	}
}

func TestBookRepo_Remove(t *testing.T) {
	seed := func() [][]string {
		return [][]string{
			{"1", "A", "B", "1", "0", "G", "D"},
			{"2", "C", "D", "1", "1", "G2", "D2"},
			{"3", "E", "F", "0", "2", "G3", "D3"},
			{"4", "H", "I", "2", "1", "G4", "D4"},
		}
	}

	for d := 1; d <= 4; d++ {
		t.Run("delete row "+string(rune('0'+d)), func(t *testing.T) {
			repo, client := newTestRepo(t, seed())
			want, err := DeleteAndRenumber(seed(), RowIndex(d))
			if err != nil {
				t.Fatalf("DeleteAndRenumber() error = %v", err)
			}

			if err := repo.Remove(context.Background(), d); err != nil {
				t.Fatalf("Remove(%d) error = %v", d, err)
			}

			if got := readTable(t, client); !reflect.DeepEqual(got, want) {
				t.Errorf("after Remove(%d) = %v, want %v", d, got, want)
			}
		})
	}
}

func TestBookRepo_Remove_Scenario(t *testing.T) {
	repo, client := newTestRepo(t, [][]string{
		{"1", "A", "B", "1", "0", "G", "D"},
		{"2", "C", "D", "1", "1", "G2", "D2"},
	})
	ctx := context.Background()

	if err := repo.Remove(ctx, 1); err != nil {
		t.Fatalf("Remove(1) error = %v", err)
	}

	want := [][]string{{"1", "C", "D", "1", "1", "G2", "D2"}}
	if got := readTable(t, client); !reflect.DeepEqual(got, want) {
		t.Errorf("table = %v, want %v", got, want)
	}

	latest, err := repo.LatestID(ctx)
	if err != nil {
		t.Fatalf("LatestID() error = %v", err)
	}
	if latest != 2 {
		t.Errorf("LatestID() = %d, want 2", latest)
	}
}

func TestBookRepo_Remove_InvalidID(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	opener := func(ctx context.Context) (tabular.Client, error) { return client, nil }
	repo := NewBookRepo(opener, testLocation, 0)

	// No store call is expected.
	for _, id := range []int{0, -3} {
		if err := repo.Remove(context.Background(), id); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Remove(%d) error = %v, want ErrInvalidArgument", id, err)
		}
	}
}

func TestBookRepo_Remove_DeleteFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	opener := func(ctx context.Context) (tabular.Client, error) { return client, nil }
	repo := NewBookRepo(opener, testLocation, 0)

	client.EXPECT().DeleteRows(gomock.Any(), 1, 2).Return(tabular.ErrUnavailable)

	err := repo.Remove(context.Background(), 2)
	if !errors.Is(err, tabular.ErrUnavailable) {
		t.Errorf("Remove() error = %v, want ErrUnavailable", err)
	}
	var renumberErr *RenumberError
	if errors.As(err, &renumberErr) {
		t.Error("Remove() returned RenumberError for a failed delete")
	}
}

func TestBookRepo_Remove_RenumberFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	opener := func(ctx context.Context) (tabular.Client, error) { return client, nil }
	repo := NewBookRepo(opener, testLocation, 0)

	idColumn := tabular.Range{FromRow: 2, FromColumn: "A", ToColumn: "A"}
	gomock.InOrder(
		client.EXPECT().DeleteRows(gomock.Any(), 1, 2).Return(nil),
		client.EXPECT().ReadRange(gomock.Any(), idColumn).Return([][]string{{"3"}, {"4"}}, nil),
		client.EXPECT().UpdateRange(gomock.Any(), tabular.Range{FromRow: 2, ToRow: 3, FromColumn: "A", ToColumn: "A"}, [][]string{{"2"}, {"3"}}).
			Return(tabular.ErrWriteRejected),
	)

	err := repo.Remove(context.Background(), 2)
	var renumberErr *RenumberError
	if !errors.As(err, &renumberErr) {
		t.Fatalf("Remove() error = %v, want *RenumberError", err)
	}
	if renumberErr.Row != 2 {
		t.Errorf("RenumberError.Row = %d, want 2", renumberErr.Row)
	}
	if !errors.Is(err, tabular.ErrWriteRejected) {
		t.Errorf("Remove() error = %v, want to wrap ErrWriteRejected", err)
	}
}

func TestBookRepo_Remove_LastRowSkipsUpdate(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	opener := func(ctx context.Context) (tabular.Client, error) { return client, nil }
	repo := NewBookRepo(opener, testLocation, 0)

	client.EXPECT().DeleteRows(gomock.Any(), 2, 3).Return(nil)
	client.EXPECT().ReadRange(gomock.Any(), gomock.Any()).Return(nil, nil)

	if err := repo.Remove(context.Background(), 3); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
}

func TestBookRepo_Renumber_Repairs(t *testing.T) {
	repo, client := newTestRepo(t, [][]string{
		{"1", "A", "B", "1", "0"},
		{"7", "C", "D", "1", "0"},
		{"x", "E", "F", "1", "0"},
	})

	if err := repo.Renumber(context.Background(), 1); err != nil {
		t.Fatalf("Renumber() error = %v", err)
	}

	got := readTable(t, client)
	for i, row := range got {
		if row[colID] != string(rune('1'+i)) {
			t.Errorf("row %d id = %s, want %d", i+1, row[colID], i+1)
		}
	}

	if err := repo.Renumber(context.Background(), 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Renumber(0) error = %v, want ErrInvalidArgument", err)
	}
}

func TestBookRepo_Search(t *testing.T) {
	repo, _ := newTestRepo(t, [][]string{
		{"1", "The Hobbit", "J.R.R. Tolkien", "1", "1"},
		{"2", "Dune", "Frank Herbert", "2", "1"},
		{"x", "The Hobbit Annotated", "Tolkien", "1", "1"},
		{"4", "Hob"},
		{"5", "Sapiens", "Yuval Noah Harari", "0", "0"},
	})
	ctx := context.Background()

	tests := []struct {
		query   string
		wantIDs []int
	}{
		{query: "hob", wantIDs: []int{1}},
		{query: "HERBERT", wantIDs: []int{2}},
		{query: "a", wantIDs: []int{2, 5}},
		{query: "  ", wantIDs: []int{}},
		{query: "", wantIDs: []int{}},
		{query: "nothing", wantIDs: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := repo.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("Search(%q) error = %v", tt.query, err)
			}
			ids := make([]int, 0, len(got))
			for _, b := range got {
				ids = append(ids, b.ID)
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("Search(%q) ids = %v, want %v", tt.query, ids, tt.wantIDs)
			}
		})
	}
}

func TestBookRepo_List(t *testing.T) {
	repo, _ := newTestRepo(t, [][]string{
		{"1", "A", "B", "1", "0"},
		{"bad", "C", "D", "1", "0"},
		{"3", "E", "F", "2", "2", "G", "D"},
	})

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("List() = %+v", got)
	}
}

func TestBookRepo_LatestID(t *testing.T) {
	empty, _ := newTestRepo(t, nil)
	if got, err := empty.LatestID(context.Background()); err != nil || got != 1 {
		t.Errorf("LatestID() on empty = %d, %v, want 1", got, err)
	}

	repo, _ := newTestRepo(t, [][]string{{"1", "A", "B", "1", "0"}, {"2", "C", "D", "1", "0"}, {"3", "E", "F", "1", "0"}})
	if got, err := repo.LatestID(context.Background()); err != nil || got != 4 {
		t.Errorf("LatestID() = %d, %v, want 4", got, err)
	}
}

func TestBookRepo_StoreUnavailable(t *testing.T) {
	opener := func(ctx context.Context) (tabular.Client, error) {
		return nil, tabular.ErrUnavailable
	}
	repo := NewBookRepo(opener, testLocation, 0)
	ctx := context.Background()

	if _, err := repo.LatestID(ctx); !errors.Is(err, tabular.ErrUnavailable) {
		t.Errorf("LatestID() error = %v, want ErrUnavailable", err)
	}
	if _, err := repo.GetByID(ctx, 1); !errors.Is(err, tabular.ErrUnavailable) {
		t.Errorf("GetByID() error = %v, want ErrUnavailable", err)
	}
	if _, err := repo.Search(ctx, "x"); !errors.Is(err, tabular.ErrUnavailable) {
		t.Errorf("Search() error = %v, want ErrUnavailable", err)
	}
	if res, err := repo.Append(ctx, Book{Title: "A", Author: "B"}); !errors.Is(err, tabular.ErrUnavailable) || res.Success {
		t.Errorf("Append() = %+v, %v, want ErrUnavailable", res, err)
	}
}

func TestBookRepo_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	opener := func(ctx context.Context) (tabular.Client, error) { return client, nil }
	repo := NewBookRepo(opener, testLocation, 20*time.Millisecond)

	client.EXPECT().ReadRange(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ tabular.Range) ([][]string, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	)

	_, err := repo.LatestID(context.Background())
	if !errors.Is(err, tabular.ErrUnavailable) {
		t.Errorf("LatestID() error = %v, want ErrUnavailable", err)
	}
}
