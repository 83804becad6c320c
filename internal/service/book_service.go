package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_book_store.go -package=mocks bookshelf/internal/service BookStore
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks bookshelf/internal/service LLMClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks bookshelf/internal/service Embedder
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_publisher.go -package=mocks bookshelf/internal/service Publisher
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_book_service.go -package=mocks -mock_names=BookService=MockBookService bookshelf/internal/service BookService

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"bookshelf/internal/contextutil"
	"bookshelf/internal/events"
	"bookshelf/internal/llm"
	"bookshelf/internal/storage"
)

const (
	defaultSimilarK = 5
	maxSimilarK     = 20
)

// BookStore is the record store the service drives.
// This interface is defined from the service layer's perspective (consumer-first).
type BookStore interface {
	GetByID(ctx context.Context, id int) (*storage.Book, error)
	Append(ctx context.Context, book storage.Book) (storage.AddResult, error)
	Remove(ctx context.Context, id int) error
	Search(ctx context.Context, query string) ([]storage.Book, error)
	List(ctx context.Context) ([]storage.Book, error)
	Rows(ctx context.Context) ([][]string, error)
	LatestID(ctx context.Context) (int, error)
	Renumber(ctx context.Context, from storage.RowIndex) error
}

// LLMClient is the completion generator used to suggest book metadata.
type LLMClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// Publisher receives a notification for every change to the library.
type Publisher interface {
	Publish(ctx context.Context, event events.Event)
}

// ListFilter narrows List. Nil fields and an empty query match everything.
type ListFilter struct {
	Status   *storage.Status
	Category *storage.Category
	Query    string
}

// IDHint is the id the next appended book is expected to get.
// Fallback is true when the store could not be read and ID is the default 1;
// it must not be trusted for anything but display.
type IDHint struct {
	ID       int  `json:"id"`
	Fallback bool `json:"fallback"`
}

// AddRequest describes a new book. Zero-value optional fields take defaults.
type AddRequest struct {
	Title       string            `json:"title"`
	Author      string            `json:"author"`
	Status      *storage.Status   `json:"status,omitempty"`
	Category    *storage.Category `json:"category,omitempty"`
	Genre       string            `json:"genre,omitempty"`
	Description string            `json:"description,omitempty"`
	// Enrich asks the completion generator to correct the title and author and fill in missing fields.
	Enrich bool `json:"enrich,omitempty"`
}

// AddResponse is the outcome of Add.
type AddResponse struct {
	storage.AddResult
	Book     storage.Book `json:"book"`
	Enriched bool         `json:"enriched"`
}

// BookService provides the library operations.
type BookService interface {
	// Get returns the book at id.
	Get(ctx context.Context, id int) (*storage.Book, error)
	// List returns every well-formed book matching filter, in row order.
	List(ctx context.Context, filter ListFilter) ([]storage.Book, error)
	// Search returns books whose title or author contains query. Store failures yield an empty result.
	Search(ctx context.Context, query string) []storage.Book
	// LatestID returns the id the next appended book is expected to get.
	LatestID(ctx context.Context) IDHint
	// Add validates, optionally enriches, and appends a book.
	Add(ctx context.Context, req AddRequest) (AddResponse, error)
	// SuggestMetadata asks the completion generator to fill in a book's details.
	SuggestMetadata(ctx context.Context, req MetadataRequest) (Metadata, error)
	// PreviewRemove reports what Remove(id) would change without writing.
	PreviewRemove(ctx context.Context, id int) (RemovePreview, error)
	// Remove deletes the book at id and renumbers the books below it.
	Remove(ctx context.Context, id int) error
	// ChangeStatus moves a book to a new status by deleting and re-appending it.
	ChangeStatus(ctx context.Context, req StatusChangeRequest) (StatusChangeResult, error)
	// Similar returns up to k books similar to the one at id.
	Similar(ctx context.Context, id, k int, sameCategory bool) ([]SimilarBook, error)
	// Repair rewrites every id to match its row.
	Repair(ctx context.Context) error
	// Reindex rebuilds the similar-books index from the store.
	Reindex(ctx context.Context) error
}

// bookService implements BookService.
//
// Mutations hold writeLock for their full duration so that, within one process,
// the multi-step store protocols never interleave. Other processes writing the
// same sheet are not coordinated with.
type bookService struct {
	store     BookStore
	llmClient LLMClient
	similar   *SimilarIndex
	publisher Publisher
	writeLock sync.Mutex
}

// NewBookService creates a new BookService. llmClient, similar and publisher may be nil.
func NewBookService(store BookStore, llmClient LLMClient, similar *SimilarIndex, publisher Publisher) BookService {
	return &bookService{
		store:     store,
		llmClient: llmClient,
		similar:   similar,
		publisher: publisher,
	}
}

func (s *bookService) publish(ctx context.Context, event events.Event) {
	if s.publisher != nil {
		s.publisher.Publish(ctx, event)
	}
}

// Get returns the book at id.
func (s *bookService) Get(ctx context.Context, id int) (*storage.Book, error) {
	book, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, WrapError(err, fmt.Sprintf("failed to get book %d", id))
	}
	return book, nil
}

// List returns every well-formed book matching filter.
func (s *bookService) List(ctx context.Context, filter ListFilter) ([]storage.Book, error) {
	books, err := s.store.List(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list books")
	}

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]storage.Book, 0, len(books))
	for _, b := range books {
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		if filter.Category != nil && b.Category != *filter.Category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(b.Title), q) && !strings.Contains(strings.ToLower(b.Author), q) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Search returns matching books or an empty slice on any failure.
func (s *bookService) Search(ctx context.Context, query string) []storage.Book {
	books, err := s.store.Search(ctx, query)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "search failed, returning no results", "query", query, "error", err)
		return []storage.Book{}
	}
	return books
}

// LatestID returns the next id, flagging the fallback value when the store is unreachable.
func (s *bookService) LatestID(ctx context.Context) IDHint {
	id, err := s.store.LatestID(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "could not read latest id, using fallback", "error", err)
		return IDHint{ID: 1, Fallback: true}
	}
	return IDHint{ID: id}
}

// Add validates, optionally enriches, and appends a book.
func (s *bookService) Add(ctx context.Context, req AddRequest) (AddResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Title) == "" {
		return AddResponse{}, &ValidationError{Field: "title", Message: "cannot be empty"}
	}
	if strings.TrimSpace(req.Author) == "" {
		return AddResponse{}, &ValidationError{Field: "author", Message: "cannot be empty"}
	}

	book := storage.Book{
		Title:       strings.TrimSpace(req.Title),
		Author:      strings.TrimSpace(req.Author),
		Status:      storage.StatusUnread,
		Category:    storage.CategoryNonFiction,
		Genre:       storage.DefaultGenre,
		Description: storage.DefaultDescription,
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return AddResponse{}, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %d", int(*req.Status))}
		}
		book.Status = *req.Status
	}
	if req.Category != nil {
		book.Category = *req.Category
	}
	if g := strings.TrimSpace(req.Genre); g != "" {
		book.Genre = g
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		book.Description = d
	}

	enriched := false
	if req.Enrich && s.llmClient != nil {
		md, err := s.SuggestMetadata(ctx, MetadataRequest{Title: book.Title, Author: book.Author})
		if err != nil {
			logger.WarnContext(ctx, "metadata enrichment failed, adding book as entered", "error", err)
		} else {
			book.Title, book.Author = md.Title, md.Author
			if req.Category == nil {
				book.Category = md.Category
			}
			if strings.TrimSpace(req.Genre) == "" {
				book.Genre = md.Genre
			}
			if strings.TrimSpace(req.Description) == "" {
				book.Description = md.Description
			}
			enriched = true
		}
	}

	s.writeLock.Lock()
	res, err := s.store.Append(ctx, book)
	s.writeLock.Unlock()
	if err != nil {
		logger.ErrorContext(ctx, "failed to add book", "title", book.Title, "error", err)
		return AddResponse{AddResult: res, Book: book, Enriched: enriched}, WrapError(err, "failed to add book")
	}

	if res.IsDuplicate {
		logger.InfoContext(ctx, "duplicate book rejected", "title", book.Title, "author", book.Author)
		return AddResponse{AddResult: res, Book: book, Enriched: enriched}, nil
	}

	book.ID = res.ID
	if s.similar != nil {
		if err := s.similar.Index(ctx, book); err != nil {
			logger.WarnContext(ctx, "failed to index new book", "id", book.ID, "error", err)
		}
	}
	s.publish(ctx, events.Event{
		Type:    events.BookAdded,
		BookID:  book.ID,
		Title:   book.Title,
		Message: fmt.Sprintf("Added %q by %s", book.Title, book.Author),
	})

	return AddResponse{AddResult: res, Book: book, Enriched: enriched}, nil
}

// RemovePreview describes the row a removal deletes and the ids it rewrites.
type RemovePreview struct {
	Title  string
	Author string
	// StoredID is the id cell of the removed row, which differs from the row number when ids have drifted.
	StoredID string
	Moves    []storage.Move
}

// PreviewRemove works on the physical rows, so drifted or unreadable ids are
// reported as they would actually be rewritten.
func (s *bookService) PreviewRemove(ctx context.Context, id int) (RemovePreview, error) {
	if id < 1 {
		return RemovePreview{}, fmt.Errorf("%w: row number must be positive, got %d", ErrInvalidArgument, id)
	}

	rows, err := s.store.Rows(ctx)
	if err != nil {
		return RemovePreview{}, WrapError(err, "failed to read library")
	}
	if id > len(rows) {
		return RemovePreview{}, fmt.Errorf("%w: row %d is past the last row %d", ErrNotFound, id, len(rows))
	}

	removed, moves, err := storage.PreviewDelete(rows, storage.RowOf(id))
	if err != nil {
		return RemovePreview{}, err
	}
	preview := RemovePreview{Moves: moves}
	if len(removed) > 0 {
		preview.StoredID = strings.TrimSpace(removed[0])
	}
	if len(removed) > 2 {
		preview.Title, preview.Author = removed[1], removed[2]
	}
	return preview, nil
}

// Remove deletes the book at id. A *RenumberError means the book is gone but
// the ids below it are stale until Repair runs.
func (s *bookService) Remove(ctx context.Context, id int) error {
	logger := contextutil.LoggerFromContext(ctx)

	if id < 1 {
		return fmt.Errorf("%w: row number must be positive, got %d", ErrInvalidArgument, id)
	}

	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	book, lookupErr := s.store.GetByID(ctx, id)
	if lookupErr != nil {
		logger.WarnContext(ctx, "removing row that does not hold a readable book", "id", id, "error", lookupErr)
	}

	if err := s.store.Remove(ctx, id); err != nil {
		var renumberErr *RenumberError
		if errors.As(err, &renumberErr) {
			s.publish(ctx, events.Event{
				Type:    events.LibraryRefresh,
				BookID:  id,
				Message: "Book removed but ids could not be updated; refresh before making further changes.",
				Refresh: true,
			})
			return err
		}
		return WrapError(err, fmt.Sprintf("failed to remove book %d", id))
	}

	title := ""
	if book != nil {
		title = book.Title
		if s.similar != nil {
			if err := s.similar.Remove(ctx, *book); err != nil {
				logger.WarnContext(ctx, "failed to remove book from index", "id", id, "error", err)
			}
		}
	}

	// Every book below the removed row now has a new id.
	s.publish(ctx, events.Event{
		Type:    events.BookRemoved,
		BookID:  id,
		Title:   title,
		Message: "Book removed",
		Refresh: true,
	})
	return nil
}

// ChangeStatus runs the status-change workflow under the write lock.
func (s *bookService) ChangeStatus(ctx context.Context, req StatusChangeRequest) (StatusChangeResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	wf := NewStatusChangeWorkflow(s.store)
	res, err := wf.Run(ctx, req)
	if err != nil {
		var partial *PartialFailureError
		if errors.As(err, &partial) {
			if s.similar != nil {
				if err := s.similar.Remove(ctx, partial.Book); err != nil {
					logger.WarnContext(ctx, "failed to remove lost book from index", "error", err)
				}
			}
			s.publish(ctx, events.Event{
				Type:    events.LibraryRefresh,
				BookID:  req.ID,
				Title:   partial.Book.Title,
				Message: fmt.Sprintf("%q was removed but could not be re-added. Refresh and add it again.", partial.Book.Title),
				Refresh: true,
			})
		}
		return StatusChangeResult{Trace: wf.Trace()}, err
	}

	if res.AlreadySet {
		return res, nil
	}

	if s.similar != nil {
		if err := s.similar.Index(ctx, res.Book); err != nil {
			logger.WarnContext(ctx, "failed to reindex book", "id", res.Book.ID, "error", err)
		}
	}
	s.publish(ctx, events.Event{
		Type:    events.StatusChanged,
		BookID:  res.Book.ID,
		Title:   res.Book.Title,
		Message: fmt.Sprintf("%q is now %s", res.Book.Title, res.Book.Status),
		Refresh: true,
	})
	return res, nil
}

// Similar returns up to k books similar to the one at id, resolved against the current store.
func (s *bookService) Similar(ctx context.Context, id, k int, sameCategory bool) ([]SimilarBook, error) {
	if s.similar == nil {
		return nil, ErrSimilarDisabled
	}
	if k <= 0 {
		k = defaultSimilarK
	}
	k = min(k, maxSimilarK)

	book, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, WrapError(err, fmt.Sprintf("failed to get book %d", id))
	}

	hits, err := s.similar.Query(ctx, *book, k, sameCategory)
	if err != nil {
		return nil, err
	}

	books, err := s.store.List(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list books")
	}
	byKey := make(map[string]storage.Book, len(books))
	for _, b := range books {
		byKey[b.Key()] = b
	}

	out := make([]SimilarBook, 0, len(hits))
	for _, hit := range hits {
		key := storage.Book{Title: metaString(hit.Meta, "title"), Author: metaString(hit.Meta, "author")}.Key()
		if b, ok := byKey[key]; ok {
			out = append(out, SimilarBook{Book: b, Score: hit.Score})
		}
	}
	return out, nil
}

// Repair rewrites every id to match its row.
func (s *bookService) Repair(ctx context.Context) error {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	if err := s.store.Renumber(ctx, 1); err != nil {
		return WrapError(err, "failed to renumber books")
	}
	s.publish(ctx, events.Event{Type: events.LibraryRefresh, Message: "Book ids repaired", Refresh: true})
	return nil
}

// Reindex rebuilds the similar-books index from the store.
func (s *bookService) Reindex(ctx context.Context) error {
	if s.similar == nil {
		return ErrSimilarDisabled
	}
	books, err := s.store.List(ctx)
	if err != nil {
		return WrapError(err, "failed to list books")
	}
	return s.similar.Reindex(ctx, books)
}
