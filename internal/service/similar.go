package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"bookshelf/internal/contextutil"
	"bookshelf/internal/storage"
	"bookshelf/internal/vectorstore"
)

const reindexBatchSize = 32

// bookNamespace seeds the name-based UUIDs of index points.
var bookNamespace = uuid.MustParse("3b0d8f0e-4c55-4a8e-9f5a-6a1f3c2d7b19")

// Embedder turns text into vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// SimilarBook is a search hit resolved back to the book currently in the store.
type SimilarBook struct {
	Book  storage.Book `json:"book"`
	Score float32      `json:"score"`
}

// SimilarIndex keeps book embeddings in a vector store.
//
// Points are keyed by title and author, never by id: ids are row positions and
// shift whenever a row above is deleted.
type SimilarIndex struct {
	store      vectorstore.VectorStore
	embedder   Embedder
	collection string
}

// NewSimilarIndex creates an index over the given collection.
func NewSimilarIndex(store vectorstore.VectorStore, embedder Embedder, collection string) *SimilarIndex {
	return &SimilarIndex{
		store:      store,
		embedder:   embedder,
		collection: collection,
	}
}

// PointID returns the stable vector point id of a book.
func PointID(b storage.Book) string {
	return uuid.NewSHA1(bookNamespace, []byte(b.Key())).String()
}

func embeddingText(b storage.Book) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s by %s", strings.TrimSpace(b.Title), strings.TrimSpace(b.Author))
	if b.Genre != "" && b.Genre != storage.DefaultGenre {
		fmt.Fprintf(&sb, ": %s", b.Genre)
	}
	if b.Description != "" && b.Description != storage.DefaultDescription {
		fmt.Fprintf(&sb, ". %s", b.Description)
	}
	return sb.String()
}

// Index embeds and upserts the given books.
func (i *SimilarIndex) Index(ctx context.Context, books ...storage.Book) error {
	if len(books) == 0 {
		return nil
	}

	texts := make([]string, len(books))
	for j, b := range books {
		texts[j] = embeddingText(b)
	}

	vecs, err := i.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed books: %w", ErrExternalService, err)
	}
	if len(vecs) != len(books) {
		return fmt.Errorf("%w: expected %d embeddings, got %d", ErrExternalService, len(books), len(vecs))
	}

	points := make([]vectorstore.Point, len(books))
	for j, b := range books {
		points[j] = vectorstore.Point{
			ID:  PointID(b),
			Vec: vecs[j],
			Meta: map[string]any{
				"title":    strings.TrimSpace(b.Title),
				"author":   strings.TrimSpace(b.Author),
				"category": int64(b.Category),
				"status":   int64(b.Status),
				"genre":    b.Genre,
			},
		}
	}

	if err := i.store.Upsert(ctx, i.collection, points); err != nil {
		return fmt.Errorf("%w: %w", ErrExternalService, err)
	}
	return nil
}

// Remove deletes the book's point.
func (i *SimilarIndex) Remove(ctx context.Context, b storage.Book) error {
	if err := i.store.Delete(ctx, i.collection, []string{PointID(b)}); err != nil {
		return fmt.Errorf("%w: %w", ErrExternalService, err)
	}
	return nil
}

// Reindex upserts every book in batches.
func (i *SimilarIndex) Reindex(ctx context.Context, books []storage.Book) error {
	logger := contextutil.LoggerFromContext(ctx)

	for start := 0; start < len(books); start += reindexBatchSize {
		end := min(start+reindexBatchSize, len(books))
		if err := i.Index(ctx, books[start:end]...); err != nil {
			return fmt.Errorf("reindex books %d-%d: %w", start+1, end, err)
		}
	}

	logger.InfoContext(ctx, "similar books index rebuilt", "books", len(books))
	return nil
}

// Query returns the title and author of the k books nearest to b, excluding b itself.
func (i *SimilarIndex) Query(ctx context.Context, b storage.Book, k int, sameCategory bool) ([]vectorstore.SearchResult, error) {
	vecs, err := i.embedder.EmbedTexts(ctx, []string{embeddingText(b)})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", ErrExternalService, err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: expected 1 embedding, got %d", ErrExternalService, len(vecs))
	}

	filter := vectorstore.Filter{ExcludeIDs: []string{PointID(b)}}
	if sameCategory {
		category := int64(b.Category)
		filter.Category = &category
	}

	results, err := i.store.Search(ctx, i.collection, vecs[0], k, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExternalService, err)
	}
	return results, nil
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}
