// Package indexer orchestrates CV ingestion: text extraction, metadata
// extraction, embedding and storage for one document, and the same
// sequence over a directory.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/musdechocolate/hrai/internal/embedding"
	"github.com/musdechocolate/hrai/internal/extract"
	"github.com/musdechocolate/hrai/internal/metadata"
	"github.com/musdechocolate/hrai/internal/storage"
)

var (
	// ErrNotFound indicates the input file or directory does not exist.
	ErrNotFound = errors.New("input not found")

	// ErrIngestion wraps collaborator failures that carry no sentinel of
	// their own.
	ErrIngestion = errors.New("ingestion failed")
)

// documentInterval paces consecutive documents in a batch to bound the
// aggregate request rate against the metadata and embedding providers.
const documentInterval = time.Second

// TextExtractor converts a document file into plain text.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// MetadataExtractor derives a structured metadata record from CV text.
type MetadataExtractor interface {
	Extract(ctx context.Context, text string) (metadata.Record, error)
}

// Embedder computes the embedding vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store persists resume records.
type Store interface {
	Upsert(ctx context.Context, resume *storage.Resume) error
}

// IngestResult contains the outcome of a directory ingestion.
type IngestResult struct {
	Total     int
	Succeeded int
	Failed    []FailedFile
	Duration  time.Duration
}

// FailedFile records one document that could not be ingested.
type FailedFile struct {
	Path   string
	Reason string
}

// Pipeline runs the ingestion sequence for CVs. It owns its collaborator
// handles; nothing is shared through package state, so tests can
// substitute fakes.
type Pipeline struct {
	extractor  TextExtractor
	metadata   MetadataExtractor
	embedder   Embedder
	store      Store
	limiter    *rate.Limiter
	logger     *slog.Logger
	onDocument func(path string, err error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithDocumentHook registers a callback invoked after each document in a
// batch, successful or not. Used by the CLI for progress reporting.
func WithDocumentHook(hook func(path string, err error)) Option {
	return func(p *Pipeline) { p.onDocument = hook }
}

// WithPacingInterval overrides the delay between consecutive documents
// in a batch.
func WithPacingInterval(interval time.Duration) Option {
	return func(p *Pipeline) { p.limiter = rate.NewLimiter(rate.Every(interval), 1) }
}

// NewPipeline creates an ingestion pipeline with the given collaborators.
func NewPipeline(extractor TextExtractor, meta MetadataExtractor, embedder Embedder, store Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		metadata:  meta,
		embedder:  embedder,
		store:     store,
		limiter:   rate.NewLimiter(rate.Every(documentInterval), 1),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IngestFile ingests one CV: extract text, extract metadata, compute the
// embedding, then store the assembled record under a fresh id. Ingesting
// the same file twice creates two independent records; no dedup is
// performed. A missing path returns ErrNotFound without touching any
// collaborator.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*storage.Resume, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	name := filepath.Base(path)

	text, err := p.extractor.Extract(path)
	if err != nil {
		return nil, p.wrap("extract text", name, err)
	}

	// Metadata extraction and embedding both depend only on the text;
	// they run sequentially to keep provider load serialized.
	meta, err := p.metadata.Extract(ctx, text)
	if err != nil {
		return nil, p.wrap("extract metadata", name, err)
	}

	vector, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, p.wrap("embed", name, err)
	}

	resume := &storage.Resume{
		ID:       uuid.New().String(),
		Text:     text,
		Filename: name,
		Filepath: path,
		Metadata: meta,
		Vector:   vector,
	}

	if err := p.store.Upsert(ctx, resume); err != nil {
		return nil, p.wrap("store", name, err)
	}

	p.logger.Info("ingested CV", "file", name, "id", resume.ID)
	return resume, nil
}

// IngestDirectory ingests every PDF in dir. Each document is processed
// independently: one failure is recorded and the batch continues. File
// order is not guaranteed. Documents are paced to bound the aggregate
// provider request rate.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string) (*IngestResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	start := time.Now()
	result := &IngestResult{}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		result.Total++

		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIngestion, err)
		}

		path := filepath.Join(dir, entry.Name())
		_, err := p.IngestFile(ctx, path)
		if err != nil {
			p.logger.Warn("failed to ingest CV", "file", entry.Name(), "error", err)
			result.Failed = append(result.Failed, FailedFile{
				Path:   path,
				Reason: err.Error(),
			})
		} else {
			result.Succeeded++
		}
		if p.onDocument != nil {
			p.onDocument(path, err)
		}
	}

	result.Duration = time.Since(start)
	p.logger.Info("ingestion complete",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", len(result.Failed),
		"duration", result.Duration,
	)

	return result, nil
}

// wrap attaches the filename while preserving typed collaborator errors
// for errors.Is. Untyped failures gain the ErrIngestion sentinel.
func (p *Pipeline) wrap(op, name string, err error) error {
	if errors.Is(err, extract.ErrExtraction) ||
		errors.Is(err, metadata.ErrExtraction) ||
		errors.Is(err, embedding.ErrEmbedding) ||
		errors.Is(err, embedding.ErrDimensionMismatch) ||
		errors.Is(err, storage.ErrStore) ||
		errors.Is(err, storage.ErrDimensionMismatch) {
		return fmt.Errorf("%s %s: %w", op, name, err)
	}
	return fmt.Errorf("%s %s: %w", op, name, errors.Join(ErrIngestion, err))
}
