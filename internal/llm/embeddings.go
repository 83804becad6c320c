package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EmbeddingsClient turns book descriptions into vectors for the similar-books index.
type EmbeddingsClient struct {
	endpoint
	model string
	// size is the vector length every embedding must have. It matches the
	// vector store collection.
	size int
}

// NewEmbeddingsClient creates an embeddings client whose vectors must have expectedSize elements.
func NewEmbeddingsClient(baseURL, apiKey, model string, expectedSize int, timeout time.Duration) *EmbeddingsClient {
	return &EmbeddingsClient{
		endpoint: newEndpoint(baseURL, apiKey, timeout),
		model:    model,
		size:     expectedSize,
	}
}

// Size returns the expected vector length.
func (c *EmbeddingsClient) Size() int {
	return c.size
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

type embeddingsResponse struct {
	Data []embeddingData `json:"data"`
}

// EmbedTexts returns one vector per text, in input order.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("empty input array")
	}

	var resp embeddingsResponse
	if err := c.post(ctx, "/v1/embeddings", embeddingsRequest{Model: c.model, Input: texts}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	// Servers may return the batch out of order; index says where each belongs.
	result := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) || result[data.Index] != nil {
			return nil, fmt.Errorf("embedding index %d is out of range or repeated", data.Index)
		}
		if len(data.Embedding) != c.size {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", data.Index, len(data.Embedding), c.size)
		}
		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		result[data.Index] = vec
	}

	return result, nil
}
