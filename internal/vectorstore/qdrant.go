package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"bookshelf/internal/contextutil"
)

// indexedFields are payload keys with a field index, so filtered searches stay fast.
var indexedFields = []string{"category", "status"}

// QdrantStore implements VectorStore using Qdrant's gRPC API.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore creates a new Qdrant vector store client.
// urlStr is the REST address, e.g. "http://localhost:6333"; the gRPC port is
// derived from it. An https scheme enables TLS. apiKey may be empty.
func NewQdrantStore(urlStr, apiKey string) (*QdrantStore, error) {
	host, port, useTLS, err := grpcTarget(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{client: client}, nil
}

// grpcTarget maps the REST URL onto the gRPC host and port (REST port + 1, default 6334).
func grpcTarget(urlStr string) (string, int, bool, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if p := parsedURL.Port(); p != "" {
		httpPort, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid Qdrant port %q: %w", p, err)
		}
		port = httpPort + 1
	}

	return host, port, parsedURL.Scheme == "https", nil
}

// Close releases the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// Upsert writes points and waits until they are searchable.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         toPointStructs(points),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

func toPointStructs(points []Point) []*qdrant.PointStruct {
	out := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		out[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vec...),
		}
		if len(p.Meta) > 0 {
			out[i].Payload = qdrant.NewValueMap(p.Meta)
		}
	}
	return out
}

// Search returns the k nearest points narrowed by filter, best first.
func (s *QdrantStore) Search(ctx context.Context, collection string, query []float32, k int, filter Filter) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	scored, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         buildFilter(filter),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(scored))
	for _, p := range scored {
		results = append(results, SearchResult{
			PointID: p.GetId().GetUuid(),
			Score:   p.GetScore(),
			Meta:    payloadToMap(p.GetPayload()),
		})
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "search completed", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

// buildFilter converts a Filter into Qdrant conditions. Returns nil when it matches everything.
func buildFilter(filter Filter) *qdrant.Filter {
	var must, mustNot []*qdrant.Condition

	if filter.Category != nil {
		must = append(must, qdrant.NewMatchInt("category", *filter.Category))
	}

	if len(filter.ExcludeIDs) > 0 {
		ids := make([]*qdrant.PointId, 0, len(filter.ExcludeIDs))
		for _, id := range filter.ExcludeIDs {
			ids = append(ids, qdrant.NewID(id))
		}
		mustNot = append(mustNot, qdrant.NewHasID(ids...))
	}

	if len(must) == 0 && len(mustNot) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must, MustNot: mustNot}
}

// Delete removes points by id and waits for the removal to apply.
func (s *QdrantStore) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(id)
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %d points: %w", len(ids), err)
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "deleted points", "collection", collection, "count", len(ids))
	return nil
}

// Health returns the collection's vector size, point count and status.
func (s *QdrantStore) Health(ctx context.Context, collection string) (*CollectionInfo, error) {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection info: %w", err)
	}
	return collectionInfo(info), nil
}

func collectionInfo(info *qdrant.CollectionInfo) *CollectionInfo {
	out := &CollectionInfo{
		VectorSize:  int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()),
		PointsCount: int(info.GetPointsCount()),
		Status:      "unknown",
	}
	if info.GetStatus() != 0 {
		out.Status = info.GetStatus().String()
	}
	return out
}

// EnsureCollection creates the collection with cosine distance and payload
// indexes when it is missing. An existing collection must have vectorSize.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	info, err := s.Health(ctx, collection)
	switch {
	case err == nil:
		if info.VectorSize != vectorSize {
			return fmt.Errorf("collection vector size mismatch: expected %d, got %d; drop %s and restart to rebuild it",
				vectorSize, info.VectorSize, collection)
		}
		logger.InfoContext(ctx, "collection validated", "collection", collection, "vector_size", vectorSize, "points", info.PointsCount)
		return nil
	case !errors.Is(err, ErrCollectionNotFound):
		return err
	}

	logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", vectorSize)
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	for _, field := range indexedFields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeInteger.Enum(),
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", field, err)
		}
	}
	return nil
}

// payloadToMap flattens a point payload into plain Go values. Only the
// scalar kinds written by Upsert are expected.
func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		switch val := v.GetKind().(type) {
		case *qdrant.Value_StringValue:
			out[k] = val.StringValue
		case *qdrant.Value_IntegerValue:
			out[k] = val.IntegerValue
		case *qdrant.Value_DoubleValue:
			out[k] = val.DoubleValue
		case *qdrant.Value_BoolValue:
			out[k] = val.BoolValue
		}
	}
	return out
}
