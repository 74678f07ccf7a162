package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musdechocolate/hrai/internal/embedding"
	"github.com/musdechocolate/hrai/internal/storage"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeSearcher struct {
	hits      []*storage.ScoredResume
	err       error
	gotVector []float32
	gotFilter map[string]any
	gotLimit  int
	calls     int
}

func (f *fakeSearcher) Search(ctx context.Context, vector []float32, filter map[string]any, limit int) ([]*storage.ScoredResume, error) {
	f.calls++
	f.gotVector = vector
	f.gotFilter = filter
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func hit(id string, score float64) *storage.ScoredResume {
	return &storage.ScoredResume{
		Resume: &storage.Resume{ID: id},
		Score:  score,
	}
}

func TestQuery(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	store := &fakeSearcher{hits: []*storage.ScoredResume{hit("a", 0.9), hit("b", 0.7)}}
	engine := NewEngine(embedder, store)

	filters := map[string]any{"location": "Remote"}
	hits, err := engine.Query(context.Background(), "python backend engineer", filters, 2)
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Resume.ID)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)

	assert.Equal(t, []float32{0.1, 0.2}, store.gotVector)
	assert.Equal(t, filters, store.gotFilter)
	assert.Equal(t, 2, store.gotLimit)
}

func TestQuery_EmptyText(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	store := &fakeSearcher{}
	engine := NewEngine(embedder, store)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := engine.Query(context.Background(), text, nil, 4)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}

	assert.Zero(t, embedder.calls, "empty query must not reach the embedder")
	assert.Zero(t, store.calls)
}

func TestQuery_DefaultLimit(t *testing.T) {
	store := &fakeSearcher{}
	engine := NewEngine(&fakeEmbedder{vector: []float32{0.1}}, store)

	_, err := engine.Query(context.Background(), "golang engineer", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, store.gotLimit)

	_, err = engine.Query(context.Background(), "golang engineer", nil, -3)
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, store.gotLimit)
}

func TestQuery_NilFilterPassedThrough(t *testing.T) {
	store := &fakeSearcher{}
	engine := NewEngine(&fakeEmbedder{vector: []float32{0.1}}, store)

	_, err := engine.Query(context.Background(), "query", nil, 4)
	require.NoError(t, err)
	assert.Nil(t, store.gotFilter, "no filters means an unrestricted search")
}

func TestQuery_EmbedFailure(t *testing.T) {
	store := &fakeSearcher{}
	engine := NewEngine(&fakeEmbedder{err: embedding.ErrEmbedding}, store)

	_, err := engine.Query(context.Background(), "query", nil, 4)
	assert.ErrorIs(t, err, embedding.ErrEmbedding)
	assert.Zero(t, store.calls)
}

func TestQuery_StoreFailure(t *testing.T) {
	store := &fakeSearcher{err: storage.ErrStore}
	engine := NewEngine(&fakeEmbedder{vector: []float32{0.1}}, store)

	_, err := engine.Query(context.Background(), "query", nil, 4)
	assert.ErrorIs(t, err, storage.ErrStore)
}
