package storage

import "time"

// ChunkMetadata carries the required metadata for every stored chunk.
// chunk_index is contiguous within a document and total_chunks is identical
// across all chunks sharing a DocumentID.
type ChunkMetadata struct {
	DocumentID    string    // Groups chunks belonging to one ingested file
	Filename      string    // Original filename as uploaded
	ChunkIndex    int       // 0-based position within the document
	TotalChunks   int       // Chunk count of the document at insert time
	UploadedAt    time.Time // When the document was ingested
	FileSizeBytes int64     // Size of the original file content
}

// SearchResult is an ephemeral similarity hit. Distance is the index metric:
// smaller means more similar, bounded in [0,2] for cosine and in practice
// [0,1] for normalized embeddings.
type SearchResult struct {
	ChunkID  string
	Text     string
	Metadata ChunkMetadata
	Distance float64
}

// CollectionName is the single Qdrant collection holding all chunk records.
const CollectionName = "documents"

// VectorDimension is the embedding size for text-embedding-3-small.
const VectorDimension = 1536

// Payload field names used in Qdrant. document_id is indexed for filtered
// delete and scan.
const (
	fieldText          = "text"
	fieldDocumentID    = "document_id"
	fieldFilename      = "filename"
	fieldChunkIndex    = "chunk_index"
	fieldTotalChunks   = "total_chunks"
	fieldUploadedAt    = "upload_timestamp"
	fieldFileSizeBytes = "file_size_bytes"
)
