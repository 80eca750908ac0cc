// Package ingest turns extracted document text into indexed chunk records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"docqa/internal/chunker"
	"docqa/internal/storage"
)

// ErrNoContent is returned when a document yields zero chunks. The caller
// must treat the whole upload as rejected; nothing is written.
var ErrNoContent = errors.New("no extractable content in document")

// Inserter is the write side of the vector index.
type Inserter interface {
	Insert(ctx context.Context, texts []string, metas []storage.ChunkMetadata) ([]string, error)
}

// Result reports one completed ingestion.
type Result struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	ChunksCreated int    `json:"chunks_created"`
}

// Pipeline chunks text and writes all chunk records for a document in one
// insert. A document is either fully present or not present at all: the
// insert is atomic from the caller's perspective, and a mid-ingestion
// failure leaves nothing behind (retry is the caller's responsibility).
type Pipeline struct {
	splitter *chunker.Splitter
	index    Inserter
	logger   *slog.Logger
}

func NewPipeline(splitter *chunker.Splitter, index Inserter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		splitter: splitter,
		index:    index,
		logger:   logger,
	}
}

// IngestText chunks the already-extracted text and indexes it as one new
// logical document. fileSize may be 0 when the original byte size is
// unknown; the text length is used instead.
func (p *Pipeline) IngestText(ctx context.Context, text, filename string, fileSize int64) (*Result, error) {
	chunks := p.splitter.Split(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, ErrNoContent)
	}
	if fileSize <= 0 {
		fileSize = int64(len(text))
	}

	documentID := uuid.New().String()
	uploadedAt := time.Now().UTC()

	metas := make([]storage.ChunkMetadata, len(chunks))
	for i := range chunks {
		metas[i] = storage.ChunkMetadata{
			DocumentID:    documentID,
			Filename:      filename,
			ChunkIndex:    i,
			TotalChunks:   len(chunks),
			UploadedAt:    uploadedAt,
			FileSizeBytes: fileSize,
		}
	}

	if _, err := p.index.Insert(ctx, chunks, metas); err != nil {
		return nil, fmt.Errorf("index %s: %w", filename, err)
	}

	p.logger.Info("ingested document",
		"document_id", documentID, "filename", filename, "chunks", len(chunks))

	return &Result{
		DocumentID:    documentID,
		Filename:      filename,
		ChunksCreated: len(chunks),
	}, nil
}
