package indexer

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musdechocolate/hrai/internal/embedding"
	"github.com/musdechocolate/hrai/internal/extract"
	"github.com/musdechocolate/hrai/internal/metadata"
	"github.com/musdechocolate/hrai/internal/storage"
)

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(path string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.text != "" {
		return f.text, nil
	}
	return "text of " + filepath.Base(path), nil
}

type fakeMetadata struct {
	rec   metadata.Record
	err   error
	calls int
}

func (f *fakeMetadata) Extract(ctx context.Context, text string) (metadata.Record, error) {
	f.calls++
	if f.err != nil {
		return metadata.Record{}, f.err
	}
	return f.rec, nil
}

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

type fakeStore struct {
	upserted []*storage.Resume
	err      error
}

func (f *fakeStore) Upsert(ctx context.Context, resume *storage.Resume) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, resume)
	return nil
}

type fixtures struct {
	extractor *fakeExtractor
	meta      *fakeMetadata
	embedder  *fakeEmbedder
	store     *fakeStore
	pipeline  *Pipeline
}

func newFixtures(opts ...Option) *fixtures {
	f := &fixtures{
		extractor: &fakeExtractor{},
		meta:      &fakeMetadata{rec: metadata.NewRecord()},
		embedder:  &fakeEmbedder{vector: []float32{0.1, 0.2, 0.3, 0.4}},
		store:     &fakeStore{},
	}
	opts = append([]Option{
		WithPacingInterval(time.Millisecond),
		WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)
	f.pipeline = NewPipeline(f.extractor, f.meta, f.embedder, f.store, opts...)
	return f
}

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644))
	return path
}

func TestIngestFile(t *testing.T) {
	f := newFixtures()
	path := writePDF(t, t.TempDir(), "jane_doe.pdf")

	resume, err := f.pipeline.IngestFile(context.Background(), path)
	require.NoError(t, err)

	assert.NotEmpty(t, resume.ID)
	assert.Equal(t, "text of jane_doe.pdf", resume.Text)
	assert.Equal(t, "jane_doe.pdf", resume.Filename)
	assert.Equal(t, path, resume.Filepath)
	assert.Len(t, resume.Vector, 4)
	require.Len(t, f.store.upserted, 1)
	assert.Same(t, resume, f.store.upserted[0])
}

func TestIngestFile_MissingPathCallsNoCollaborator(t *testing.T) {
	f := newFixtures()

	_, err := f.pipeline.IngestFile(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Zero(t, f.extractor.calls)
	assert.Zero(t, f.meta.calls)
	assert.Zero(t, f.embedder.calls)
	assert.Empty(t, f.store.upserted)
}

func TestIngestFile_TwiceYieldsDistinctRecords(t *testing.T) {
	f := newFixtures()
	path := writePDF(t, t.TempDir(), "jane_doe.pdf")
	ctx := context.Background()

	first, err := f.pipeline.IngestFile(ctx, path)
	require.NoError(t, err)
	second, err := f.pipeline.IngestFile(ctx, path)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, f.store.upserted, 2)
}

func TestIngestFile_ErrorPropagation(t *testing.T) {
	path := writePDF(t, t.TempDir(), "cv.pdf")
	ctx := context.Background()

	t.Run("text extraction", func(t *testing.T) {
		f := newFixtures()
		f.extractor.err = extract.ErrExtraction

		_, err := f.pipeline.IngestFile(ctx, path)
		assert.ErrorIs(t, err, extract.ErrExtraction)
		assert.ErrorContains(t, err, "cv.pdf")
		assert.Zero(t, f.meta.calls, "should stop before metadata extraction")
	})

	t.Run("metadata extraction", func(t *testing.T) {
		f := newFixtures()
		f.meta.err = metadata.ErrExtraction

		_, err := f.pipeline.IngestFile(ctx, path)
		assert.ErrorIs(t, err, metadata.ErrExtraction)
		assert.Zero(t, f.embedder.calls, "should stop before embedding")
	})

	t.Run("embedding", func(t *testing.T) {
		f := newFixtures()
		f.embedder.err = embedding.ErrEmbedding

		_, err := f.pipeline.IngestFile(ctx, path)
		assert.ErrorIs(t, err, embedding.ErrEmbedding)
		assert.Empty(t, f.store.upserted, "should stop before storage")
	})

	t.Run("store", func(t *testing.T) {
		f := newFixtures()
		f.store.err = storage.ErrStore

		_, err := f.pipeline.IngestFile(ctx, path)
		assert.ErrorIs(t, err, storage.ErrStore)
	})

	t.Run("untyped failure gains ingestion sentinel", func(t *testing.T) {
		f := newFixtures()
		cause := errors.New("connection reset")
		f.store.err = cause

		_, err := f.pipeline.IngestFile(ctx, path)
		assert.ErrorIs(t, err, ErrIngestion)
		assert.ErrorIs(t, err, cause)
	})
}

func TestIngestDirectory(t *testing.T) {
	f := newFixtures()
	dir := t.TempDir()
	writePDF(t, dir, "a.pdf")
	writePDF(t, dir, "b.pdf")
	writePDF(t, dir, "c.PDF") // extension matching is case-insensitive
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	result, err := f.pipeline.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Succeeded)
	assert.Empty(t, result.Failed)
	assert.Len(t, f.store.upserted, 3)
}

func TestIngestDirectory_ContinuesPastFailures(t *testing.T) {
	failOn := map[string]bool{"bad.pdf": true}
	f := newFixtures()
	f.meta.err = nil

	// Fail metadata extraction only for bad.pdf.
	baseExtractor := f.extractor
	f.pipeline.extractor = extractorFunc(func(path string) (string, error) {
		if failOn[filepath.Base(path)] {
			return "", extract.ErrExtraction
		}
		return baseExtractor.Extract(path)
	})

	dir := t.TempDir()
	writePDF(t, dir, "good1.pdf")
	writePDF(t, dir, "bad.pdf")
	writePDF(t, dir, "good2.pdf")

	result, err := f.pipeline.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, filepath.Join(dir, "bad.pdf"), result.Failed[0].Path)
	assert.NotEmpty(t, result.Failed[0].Reason)
}

type extractorFunc func(path string) (string, error)

func (f extractorFunc) Extract(path string) (string, error) { return f(path) }

func TestIngestDirectory_Missing(t *testing.T) {
	f := newFixtures()

	_, err := f.pipeline.IngestDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIngestDirectory_FileInsteadOfDir(t *testing.T) {
	f := newFixtures()
	path := writePDF(t, t.TempDir(), "cv.pdf")

	_, err := f.pipeline.IngestDirectory(context.Background(), path)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIngestDirectory_DocumentHook(t *testing.T) {
	var seen []string
	f := newFixtures(WithDocumentHook(func(path string, err error) {
		seen = append(seen, filepath.Base(path))
	}))

	dir := t.TempDir()
	writePDF(t, dir, "a.pdf")
	writePDF(t, dir, "b.pdf")

	_, err := f.pipeline.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.pdf", "b.pdf"}, seen)
}

func TestIngestFile_StatPermissionError(t *testing.T) {
	// A stat failure that is not absence must not be reported as NotFound.
	f := newFixtures()
	dir := t.TempDir()
	inaccessible := filepath.Join(dir, "locked", "cv.pdf")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "locked"), 0o000))
	t.Cleanup(func() { os.Chmod(filepath.Join(dir, "locked"), 0o755) })

	if os.Geteuid() == 0 {
		t.Skip("running as root, permission bits are not enforced")
	}

	_, err := f.pipeline.IngestFile(context.Background(), inaccessible)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, fs.ErrPermission)
}
