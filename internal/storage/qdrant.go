// Package storage adapts Qdrant for resume persistence and similarity
// search.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantStorage wraps the Qdrant client with connection management and
// health checks. Safe for concurrent read use; the client multiplexes
// over one gRPC connection.
type QdrantStorage struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// NewQdrantStorage creates a Qdrant client bound to one collection and
// vector dimension. It performs a health check with retry on startup and
// fails fast if Qdrant is unreachable.
func NewQdrantStorage(host string, port int, collection string, dimension int) (*QdrantStorage, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrDimensionMismatch, dimension)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	storage := &QdrantStorage{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}

	ctx := context.Background()
	if err := storage.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return storage, nil
}

// healthCheckWithRetry performs health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStorage) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		return s.Health(ctx)
	}

	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStorage) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// EnsureCollection creates the resume collection (cosine distance,
// configured dimension) and its payload indexes if and only if no
// collection with that name exists. Idempotent. It does not verify an
// existing collection's dimension.
func (s *QdrantStorage) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("%w: list collections: %v", ErrStore, err)
	}

	for _, name := range collections {
		if name == s.collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: create collection: %v", ErrStore, err)
	}

	if err := s.createPayloadIndexes(ctx); err != nil {
		return fmt.Errorf("%w: create payload indexes: %v", ErrStore, err)
	}

	return nil
}

// createPayloadIndexes creates indexes for the filterable payload fields.
// Without these, metadata filtering falls back to a full scan.
func (s *QdrantStorage) createPayloadIndexes(ctx context.Context) error {
	keywordFields := []string{
		"filename",
		"metadata.name",
		"metadata.location",
		"metadata.current_role",
		"metadata.skills",
		"metadata.languages",
	}
	for _, field := range keywordFields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("index for field %s: %w", field, err)
		}
	}

	integerFields := []string{
		"metadata.age",
		"metadata.years_of_experience",
	}
	for _, field := range integerFields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeInteger.Enum(),
		})
		if err != nil {
			return fmt.Errorf("index for field %s: %w", field, err)
		}
	}

	return nil
}

// Upsert inserts or replaces a resume by id. The vector must match the
// collection's configured dimension.
func (s *QdrantStorage) Upsert(ctx context.Context, resume *Resume) error {
	if len(resume.Vector) != s.dimension {
		return fmt.Errorf("%w: resume %s has %d dimensions, expected %d",
			ErrDimensionMismatch, resume.ID, len(resume.Vector), s.dimension)
	}

	payload, err := buildPayload(resume)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(resume.ID),
		Vectors: qdrant.NewVectors(resume.Vector...),
		Payload: qdrant.NewValueMap(payload),
	}

	if err := s.upsertWithRetry(ctx, []*qdrant.PointStruct{point}); err != nil {
		return fmt.Errorf("%w: upsert %s: %v", ErrStore, resume.ID, err)
	}
	return nil
}

// upsertWithRetry performs the upsert with exponential backoff retry.
func (s *QdrantStorage) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

// Scroll returns up to limit resumes starting at the opaque offset
// cursor (empty for the first page). The returned cursor is empty when
// the listing is exhausted. Listed resumes carry no vector.
func (s *QdrantStorage) Scroll(ctx context.Context, limit int, offset string) ([]*Resume, string, error) {
	if limit <= 0 {
		limit = 100
	}

	scroll := &qdrant.ScrollPoints{
		CollectionName: s.collection,
		// Fetch one extra point: its id is the next page's cursor.
		Limit:       qdrant.PtrOf(uint32(limit + 1)),
		WithPayload: qdrant.NewWithPayload(true),
	}
	if offset != "" {
		scroll.Offset = qdrant.NewIDUUID(offset)
	}

	results, err := s.client.Scroll(ctx, scroll)
	if err != nil {
		return nil, "", fmt.Errorf("%w: scroll: %v", ErrStore, err)
	}

	next := ""
	if len(results) > limit {
		next = results[limit].Id.GetUuid()
		results = results[:limit]
	}

	resumes := make([]*Resume, 0, len(results))
	for _, point := range results {
		resume, err := resumeFromPayload(point.Id.GetUuid(), point.Payload)
		if err != nil {
			return nil, "", err
		}
		resumes = append(resumes, resume)
	}

	return resumes, next, nil
}

// Search returns the limit nearest resumes to vector by cosine
// similarity, restricted to records matching every entry of filter,
// highest similarity first. A nil or empty filter means no restriction.
func (s *QdrantStorage) Search(ctx context.Context, vector []float32, filter map[string]any, limit int) ([]*ScoredResume, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}

	qdrantFilter, err := buildFilter(filter)
	if err != nil {
		return nil, err
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         qdrantFilter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrStore, err)
	}

	hits := make([]*ScoredResume, 0, len(results))
	for _, point := range results {
		resume, err := resumeFromPayload(point.Id.GetUuid(), point.Payload)
		if err != nil {
			return nil, err
		}
		hits = append(hits, &ScoredResume{
			Resume: resume,
			Score:  float64(point.Score),
		})
	}

	return hits, nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
