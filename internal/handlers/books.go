package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"bookshelf/internal/contextutil"
	"bookshelf/internal/service"
	"bookshelf/internal/storage"
)

// BookHandler serves the book API.
type BookHandler struct {
	books service.BookService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(books service.BookService) *BookHandler {
	return &BookHandler{books: books}
}

// BookListResponse wraps a list of books.
//
// swagger:model BookListResponse
type BookListResponse struct {
	Books []storage.Book `json:"books"`
}

// RemoveResponse is returned after a delete.
//
// swagger:model RemoveResponse
type RemoveResponse struct {
	Message string `json:"message"`
	// Refresh is always true: every book below the removed one has a new id.
	Refresh bool `json:"refresh"`
}

// StatusChangeRequest is the body of PUT /api/books/{id}/status.
//
// swagger:model StatusChangeRequest
type StatusChangeRequest struct {
	Status *storage.Status `json:"status"`
	// Expected is the caller's view of the book at id; a mismatch is rejected with 409.
	Expected *service.Expected `json:"expected,omitempty"`
}

// StatusChangeResponse reports the book's new position.
//
// swagger:model StatusChangeResponse
type StatusChangeResponse struct {
	Book       storage.Book `json:"book"`
	PreviousID int          `json:"previousId"`
	AlreadySet bool         `json:"alreadySet"`
	Refresh    bool         `json:"refresh"`
}

// PartialFailureResponse is returned when a status change deleted the book but
// could not re-add it. Book is the lost record with its new status.
//
// swagger:model PartialFailureResponse
type PartialFailureResponse struct {
	Error   string       `json:"error"`
	Refresh bool         `json:"refresh"`
	Stage   string       `json:"stage"`
	Book    storage.Book `json:"book"`
}

// SimilarResponse lists similar books with their scores.
//
// swagger:model SimilarResponse
type SimilarResponse struct {
	Books []service.SimilarBook `json:"books"`
}

func bookID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// List returns the books matching the optional status, category and q filters.
//
// swagger:route GET /api/books books listBooks
//
// # List books
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/BookListResponse"
//	'400':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'503':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := service.ListFilter{Query: query.Get("q")}
	if v := query.Get("status"); v != "" {
		status, err := storage.ParseStatus(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = &status
	}
	if v := query.Get("category"); v != "" {
		category, err := storage.ParseCategory(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Category = &category
	}

	books, err := h.books.List(ctx, filter)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list books")
		return
	}
	writeJSON(ctx, w, http.StatusOK, BookListResponse{Books: books})
}

// Add creates a book.
//
// swagger:route POST /api/books books addBook
//
// # Add a book
//
// Responds 201 when the book was written and 409 when a book with the same
// title and author already exists.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'201':
//	  description: Book added
//	'400':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'409':
//	  description: Duplicate title and author
//	'503':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *BookHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req service.AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.books.Add(ctx, req)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to add book")
		return
	}
	if resp.IsDuplicate {
		writeJSON(ctx, w, http.StatusConflict, resp)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, resp)
}

// Search returns books whose title or author contains the query parameter.
// Store failures produce an empty list.
func (h *BookHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(ctx, w, http.StatusOK, h.books.Search(ctx, r.URL.Query().Get("query")))
}

// LatestID returns the id the next added book is expected to receive.
func (h *BookHandler) LatestID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(ctx, w, http.StatusOK, h.books.LatestID(ctx))
}

// Metadata suggests corrected details for a book.
//
// swagger:route POST /api/books/metadata books suggestMetadata
//
// # Suggest book metadata
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Suggested title, author, category, genre and description
//	'400':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *BookHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.MetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	md, err := h.books.SuggestMetadata(ctx, req)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to generate metadata")
		return
	}
	writeJSON(ctx, w, http.StatusOK, md)
}

// Get returns one book.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := bookID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid book id")
		return
	}

	book, err := h.books.Get(ctx, id)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to get book")
		return
	}
	writeJSON(ctx, w, http.StatusOK, book)
}

// Delete removes a book. Every book after it moves up one id.
//
// swagger:route DELETE /api/books/{id} books removeBook
//
// # Remove a book
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/RemoveResponse"
//	'400':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'409':
//	  description: Book removed but ids below it are stale
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'503':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := bookID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid book id")
		return
	}

	if err := h.books.Remove(ctx, id); err != nil {
		handleServiceError(ctx, w, err, "Failed to remove book")
		return
	}
	writeJSON(ctx, w, http.StatusOK, RemoveResponse{Message: "Book removed successfully!", Refresh: true})
}

// ChangeStatus moves a book to a new reading status. The book is re-added at
// the end of the library and gets a new id.
//
// swagger:route PUT /api/books/{id}/status books changeStatus
//
// # Change reading status
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/StatusChangeResponse"
//	'400':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'409':
//	  description: Stale view or partial failure; the client must refresh
//	'503':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *BookHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := bookID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid book id")
		return
	}

	var req StatusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status == nil {
		writeError(w, http.StatusBadRequest, "Status is required")
		return
	}

	res, err := h.books.ChangeStatus(ctx, service.StatusChangeRequest{
		ID:       id,
		Status:   *req.Status,
		Expected: req.Expected,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to change status")
		return
	}

	writeJSON(ctx, w, http.StatusOK, StatusChangeResponse{
		Book:       res.Book,
		PreviousID: res.PreviousID,
		AlreadySet: res.AlreadySet,
		Refresh:    !res.AlreadySet,
	})
}

// Similar returns books similar to the one at id. Query parameters: k (default 5,
// max 20) and sameCategory.
func (h *BookHandler) Similar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := bookID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid book id")
		return
	}

	query := r.URL.Query()
	k := 0
	if v := query.Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = n
	}
	sameCategory := false
	if v := strings.ToLower(query.Get("sameCategory")); v == "true" || v == "1" {
		sameCategory = true
	}

	books, err := h.books.Similar(ctx, id, k, sameCategory)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to find similar books")
		return
	}
	writeJSON(ctx, w, http.StatusOK, SimilarResponse{Books: books})
}
