package storage

import "github.com/musdechocolate/hrai/internal/metadata"

// Resume is the unit of storage: one ingested CV with its extracted
// text, provenance, structured metadata and embedding vector. Records
// are immutable after ingestion; re-ingesting the same file creates a
// new record under a new id.
type Resume struct {
	ID       string // UUID, generated at ingestion time
	Text     string // full extracted plain text
	Filename string
	Filepath string
	Metadata metadata.Record
	Vector   []float32 // length equals the collection's configured dimension
}

// ScoredResume is a search hit: a stored resume with its cosine
// similarity score against the query vector.
type ScoredResume struct {
	Resume *Resume
	Score  float64
}
