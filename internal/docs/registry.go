// Package docs exposes the document-level view over the chunk index.
package docs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"docqa/internal/storage"
)

// IndexView is what the registry needs from the vector index. There is no
// separate document table: a document exists exactly when at least one of
// its chunks does, so the registry can never drift from what search returns.
type IndexView interface {
	ListDocumentIDs(ctx context.Context) ([]string, error)
	GetMetadataSample(ctx context.Context, documentID string) (*storage.ChunkMetadata, error)
	DeleteByDocumentID(ctx context.Context, documentID string) (int, error)
}

// DocumentInfo summarizes one logical document from a representative chunk.
type DocumentInfo struct {
	DocumentID    string    `json:"document_id"`
	Filename      string    `json:"filename"`
	ChunkCount    int       `json:"chunk_count"`
	UploadedAt    time.Time `json:"upload_timestamp"`
	FileSizeBytes int64     `json:"file_size_bytes"`
}

// Registry is a derived, stateless view; it stores nothing itself.
type Registry struct {
	index IndexView
}

func NewRegistry(index IndexView) *Registry {
	return &Registry{index: index}
}

// List returns every ingested document, newest upload first.
func (r *Registry) List(ctx context.Context) ([]DocumentInfo, error) {
	ids, err := r.index.ListDocumentIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list document ids: %w", err)
	}

	infos := make([]DocumentInfo, 0, len(ids))
	for _, id := range ids {
		meta, err := r.index.GetMetadataSample(ctx, id)
		if err != nil {
			// A document deleted between the scan and the lookup is not an
			// error; it simply no longer exists.
			if errors.Is(err, storage.ErrDocumentNotFound) {
				continue
			}
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		infos = append(infos, DocumentInfo{
			DocumentID:    id,
			Filename:      meta.Filename,
			ChunkCount:    meta.TotalChunks,
			UploadedAt:    meta.UploadedAt,
			FileSizeBytes: meta.FileSizeBytes,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UploadedAt.After(infos[j].UploadedAt)
	})
	return infos, nil
}

// Get returns one document's summary, or storage.ErrDocumentNotFound for a
// document that never existed or whose chunks were all deleted.
func (r *Registry) Get(ctx context.Context, documentID string) (*DocumentInfo, error) {
	meta, err := r.index.GetMetadataSample(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return &DocumentInfo{
		DocumentID:    documentID,
		Filename:      meta.Filename,
		ChunkCount:    meta.TotalChunks,
		UploadedAt:    meta.UploadedAt,
		FileSizeBytes: meta.FileSizeBytes,
	}, nil
}

// Remove deletes every chunk of a document and returns how many were
// removed. Removing an absent document returns 0 without error.
func (r *Registry) Remove(ctx context.Context, documentID string) (int, error) {
	return r.index.DeleteByDocumentID(ctx, documentID)
}
