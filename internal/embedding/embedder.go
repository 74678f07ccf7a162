// Package embedding computes fixed-dimension text embeddings through an
// OpenAI-compatible embeddings endpoint.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

var (
	// ErrEmbedding indicates the embedding call failed.
	ErrEmbedding = errors.New("embedding computation failed")

	// ErrDimensionMismatch indicates the provider returned a vector whose
	// length does not match the configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Embedder generates embeddings for CV text and search queries. It
// retries with exponential backoff on rate limit errors and rejects any
// vector that does not match the configured dimension before it can
// reach the vector store. The ingestion pipeline and the query engine
// share one Embedder so both paths use the same dimension.
type Embedder struct {
	client    *Client
	model     string
	dimension int
}

// NewEmbedder creates an Embedder for the given model and vector
// dimension. The dimension must match the store collection's.
func NewEmbedder(client *Client, model string, dimension int) *Embedder {
	return &Embedder{
		client:    client,
		model:     model,
		dimension: dimension,
	}
}

// Dimension returns the configured vector dimension.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed computes the embedding vector for one text. Rate limit errors
// (HTTP 429) are retried with exponential backoff; anything else fails
// immediately as ErrEmbedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32

	operation := func() error {
		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfString: openai.String(text),
			},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err // Will retry with backoff
			}
			return backoff.Permanent(err)
		}
		if len(resp.Data) == 0 {
			return backoff.Permanent(fmt.Errorf("no embedding in response"))
		}

		vector = toFloat32(resp.Data[0].Embedding)
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	if len(vector) != e.dimension {
		return nil, fmt.Errorf("%w: got %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), e.dimension)
	}

	return vector, nil
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts []float64 to []float32. The API returns float64,
// but the store takes float32.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
