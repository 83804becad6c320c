// Package vectorstore keeps book embeddings for similarity lookups.
package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks bookshelf/internal/vectorstore VectorStore

import (
	"context"
	"errors"
)

// ErrCollectionNotFound is returned by Health when the collection has not been created.
var ErrCollectionNotFound = errors.New("collection not found")

// Point is one embedded book. ID must be a UUID.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult is a scored point with its payload.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// Filter narrows a similarity search. Zero values match everything.
type Filter struct {
	// Category keeps only points whose "category" payload equals *Category.
	Category *int64
	// ExcludeIDs drops the given point ids from the results.
	ExcludeIDs []string
}

// CollectionInfo describes a collection for health reporting.
type CollectionInfo struct {
	VectorSize  int
	PointsCount int
	Status      string
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search narrowed by filter.
	Search(ctx context.Context, collection string, query []float32, k int, filter Filter) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// Health reports the state of the collection, or ErrCollectionNotFound.
	Health(ctx context.Context, collection string) (*CollectionInfo, error)
}
