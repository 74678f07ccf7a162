// Package search answers hybrid queries: semantic similarity over CV
// embeddings combined with exact-match metadata filters.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/musdechocolate/hrai/internal/storage"
)

// ErrEmptyQuery indicates the caller supplied no query text.
var ErrEmptyQuery = errors.New("query text is required")

// DefaultLimit is the number of results returned when the caller does
// not specify a limit.
const DefaultLimit = 4

// Embedder computes the embedding vector for a query text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher runs filtered similarity search against the vector store.
type Searcher interface {
	Search(ctx context.Context, vector []float32, filter map[string]any, limit int) ([]*storage.ScoredResume, error)
}

// Engine turns a natural-language query plus optional filters into
// ranked results. It holds only read-safe collaborator handles and may
// serve concurrent queries.
type Engine struct {
	embedder Embedder
	store    Searcher
}

// NewEngine creates a query engine over the given embedder and store.
func NewEngine(embedder Embedder, store Searcher) *Engine {
	return &Engine{
		embedder: embedder,
		store:    store,
	}
}

// Query embeds text and returns the limit nearest resumes restricted to
// records matching every filter entry, highest similarity first. An
// empty filter map means no restriction. A limit of zero or less falls
// back to DefaultLimit.
func (e *Engine) Query(ctx context.Context, text string, filters map[string]any, limit int) ([]*storage.ScoredResume, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := e.store.Search(ctx, vector, filters, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return hits, nil
}
