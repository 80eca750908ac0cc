package storage

import "errors"

var (
	ErrStoreUnreachable  = errors.New("qdrant server unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrBatchMismatch     = errors.New("texts and metadata lengths differ")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrEmptyQuery        = errors.New("query is empty")
	ErrInvalidTopK       = errors.New("top_k must be positive")
)
