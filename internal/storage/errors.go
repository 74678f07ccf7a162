package storage

import "errors"

var (
	ErrUnreachable       = errors.New("qdrant server unreachable")
	ErrStore             = errors.New("vector store operation failed")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrBadFilterValue    = errors.New("unsupported filter value")
)
