package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bookshelf/internal/contextutil"
	"bookshelf/internal/service"
	"bookshelf/internal/vectorstore"
)

const healthCheckTimeout = 5 * time.Second

// Health states, best to worst.
const (
	healthHealthy   = "healthy"
	healthDegraded  = "degraded"
	healthUnhealthy = "unhealthy"
)

// HealthHandler reports whether the book store and the similar-books index are reachable.
type HealthHandler struct {
	books       service.BookService
	vectorStore vectorstore.VectorStore
	collection  string
	now         func() time.Time
}

// NewHealthHandler creates a new HealthHandler. vectorStore may be nil when
// similar books are disabled.
func NewHealthHandler(books service.BookService, vectorStore vectorstore.VectorStore, collection string) *HealthHandler {
	return &HealthHandler{
		books:       books,
		vectorStore: vectorStore,
		collection:  collection,
		now:         time.Now,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Per-dependency state: "ok", "error", "missing" or "disabled"
	Checks map[string]string `json:"checks"`

	// NextID is the id the next added book would get. Omitted when the store is unreachable.
	NextID int `json:"nextId,omitempty"`

	// IndexedBooks is the number of books in the similar-books index.
	IndexedBooks *int `json:"indexedBooks,omitempty"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// report accumulates check results. A failing dependency can only lower the status.
type report struct {
	HealthResponse
	code int
}

func (r *report) fail(check, state, issue, status string) {
	r.Checks[check] = state
	r.Issues = append(r.Issues, issue)
	if status == healthUnhealthy {
		r.Status = healthUnhealthy
		r.code = http.StatusServiceUnavailable
	} else if r.Status == healthHealthy {
		r.Status = status
	}
}

// ServeHTTP handles HTTP requests for health checks.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// Returns 200 when the book store is reachable, 503 when it is not. An
// unreachable similar-books index only degrades the status.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: System is healthy or degraded
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: Book store unreachable
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	rep := &report{
		HealthResponse: HealthResponse{
			Status:    healthHealthy,
			Timestamp: h.now().UTC().Format(time.RFC3339),
			Checks:    map[string]string{},
		},
		code: http.StatusOK,
	}
	h.checkBookStore(checkCtx, rep)
	h.checkVectorStore(checkCtx, rep)

	writeJSON(ctx, w, rep.code, rep.HealthResponse)
}

func (h *HealthHandler) checkBookStore(ctx context.Context, rep *report) {
	hint := h.books.LatestID(ctx)
	if hint.Fallback {
		rep.fail("book_store", "error", "book_store_unavailable", healthUnhealthy)
		return
	}
	rep.Checks["book_store"] = "ok"
	rep.NextID = hint.ID
}

func (h *HealthHandler) checkVectorStore(ctx context.Context, rep *report) {
	if h.vectorStore == nil {
		rep.Checks["vector_store"] = "disabled"
		return
	}

	info, err := h.vectorStore.Health(ctx, h.collection)
	switch {
	case errors.Is(err, vectorstore.ErrCollectionNotFound):
		rep.fail("vector_store", "missing", "vector_collection_missing", healthDegraded)
	case err != nil:
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "vector store health check failed", "collection", h.collection, "error", err)
		rep.fail("vector_store", "error", "vector_store_unavailable", healthDegraded)
	default:
		rep.Checks["vector_store"] = "ok"
		rep.IndexedBooks = &info.PointsCount
	}
}
