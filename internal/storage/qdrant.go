// Package storage implements the persistent vector index on Qdrant.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// Embedder is the narrow contract the index needs from the embedding
// provider. Satisfied by embedding.Embedder; tests supply fakes.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is the vector index over chunk records. It exclusively owns all
// stored chunks; the registry and orchestrator only hold query results.
type Index struct {
	client   *qdrant.Client
	embedder Embedder
	host     string
	port     int
}

// NewIndex connects to Qdrant and verifies it is reachable, retrying with
// exponential backoff so a store that is still starting up does not fail the
// process immediately.
func NewIndex(host string, port int, embedder Embedder) (*Index, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	idx := &Index{
		client:   client,
		embedder: embedder,
		host:     host,
		port:     port,
	}

	if err := idx.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	return idx, nil
}

func (x *Index) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return x.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check against the store.
func (x *Index) Health(ctx context.Context) error {
	result, err := x.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the chunk collection if missing: cosine distance,
// 1536-dim vectors, and a keyword index on document_id so filtered delete
// and scan stay fast. Idempotent.
func (x *Index) EnsureCollection(ctx context.Context) error {
	collections, err := x.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	for _, name := range collections {
		if name == CollectionName {
			return nil
		}
	}

	err = x.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     VectorDimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	_, err = x.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: CollectionName,
		FieldName:      fieldDocumentID,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("failed to create document_id index: %w", err)
	}

	return nil
}

// Close closes the Qdrant connection.
func (x *Index) Close() error {
	if x.client != nil {
		return x.client.Close()
	}
	return nil
}

// Insert embeds every text, assigns fresh chunk IDs, and writes all records
// in one upsert with wait enabled. Embeddings are computed before anything
// touches the store, so an embedding failure leaves nothing queryable and a
// reader never observes a partial batch.
func (x *Index) Insert(ctx context.Context, texts []string, metas []ChunkMetadata) ([]string, error) {
	if len(texts) != len(metas) {
		return nil, fmt.Errorf("%w: %d texts, %d metadata entries", ErrBatchMismatch, len(texts), len(metas))
	}
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings, err := x.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embeddings), len(texts))
	}

	ids := make([]string, len(texts))
	points := make([]*qdrant.PointStruct, len(texts))
	for i, text := range texts {
		if len(embeddings[i]) != VectorDimension {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(embeddings[i]), VectorDimension)
		}
		ids[i] = uuid.New().String()
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(ids[i]),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				fieldText:          text,
				fieldDocumentID:    metas[i].DocumentID,
				fieldFilename:      metas[i].Filename,
				fieldChunkIndex:    metas[i].ChunkIndex,
				fieldTotalChunks:   metas[i].TotalChunks,
				fieldUploadedAt:    metas[i].UploadedAt.UTC().Format(time.RFC3339Nano),
				fieldFileSizeBytes: metas[i].FileSizeBytes,
			}),
		}
	}

	_, err = x.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: CollectionName,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return nil, fmt.Errorf("upsert %d chunks: %w", len(points), err)
	}

	return ids, nil
}

// Search embeds the query with the same model used at insert time and
// returns up to k results ordered by ascending distance. Qdrant's ordering
// for equal scores is unspecified, so the index over-fetches 3x, then
// stable-sorts with a documented tie-break: upload timestamp first, chunk ID
// second. Distance is 1 minus the cosine score.
func (x *Index) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, k)
	}

	embeddings, err := x.embedder.GenerateEmbeddings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVector := embeddings[0]
	if len(queryVector) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(queryVector), VectorDimension)
	}

	points, err := x.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: CollectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(k * 3)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, point := range points {
		meta, err := metadataFromPayload(point.Payload)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", point.Id.GetUuid(), err)
		}
		results = append(results, SearchResult{
			ChunkID:  point.Id.GetUuid(),
			Text:     point.Payload[fieldText].GetStringValue(),
			Metadata: meta,
			Distance: 1 - float64(point.Score),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		if !results[i].Metadata.UploadedAt.Equal(results[j].Metadata.UploadedAt) {
			return results[i].Metadata.UploadedAt.Before(results[j].Metadata.UploadedAt)
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DeleteByDocumentID removes every chunk of the document in one filtered
// delete and returns how many records matched. Deleting a document that was
// never ingested is not an error; the count is simply zero. The count comes
// from a separate call (the delete result carries no count), so it is
// best-effort when chunks for the same document ID are inserted concurrently;
// the delete itself still removes everything matching in one operation.
func (x *Index) DeleteByDocumentID(ctx context.Context, documentID string) (int, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(fieldDocumentID, documentID),
		},
	}

	count, err := x.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: CollectionName,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("count chunks for %s: %w", documentID, err)
	}
	if count == 0 {
		return 0, nil
	}

	_, err = x.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: CollectionName,
		Points:         qdrant.NewPointsSelectorFilter(filter),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("delete chunks for %s: %w", documentID, err)
	}

	return int(count), nil
}

// ListDocumentIDs scans all chunk metadata and returns the distinct document
// IDs, sorted. The flat scan keeps this view consistent with what search can
// actually return; there is no second table to drift.
func (x *Index) ListDocumentIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var offset *qdrant.PointId

	batchSize := uint32(256)
	for {
		points, err := x.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: CollectionName,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude(fieldDocumentID),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll chunks: %w", err)
		}

		for _, point := range points {
			if id := point.Payload[fieldDocumentID].GetStringValue(); id != "" {
				seen[id] = struct{}{}
			}
		}

		if uint32(len(points)) < batchSize {
			break
		}
		offset = points[len(points)-1].Id
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetMetadataSample returns one representative chunk's metadata for a
// document, used to surface filename, size, and upload time without
// re-aggregating every chunk. Returns ErrDocumentNotFound if the document
// has no chunks.
func (x *Index) GetMetadataSample(ctx context.Context, documentID string) (*ChunkMetadata, error) {
	points, err := x.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: CollectionName,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(fieldDocumentID, documentID),
			},
		},
		Limit:       qdrant.PtrOf(uint32(1)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query document %s: %w", documentID, err)
	}
	if len(points) == 0 {
		return nil, ErrDocumentNotFound
	}

	meta, err := metadataFromPayload(points[0].Payload)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", documentID, err)
	}
	return &meta, nil
}

// metadataFromPayload rebuilds typed metadata from a Qdrant payload.
func metadataFromPayload(payload map[string]*qdrant.Value) (ChunkMetadata, error) {
	uploadedAt, err := time.Parse(time.RFC3339Nano, payload[fieldUploadedAt].GetStringValue())
	if err != nil {
		return ChunkMetadata{}, fmt.Errorf("bad upload_timestamp: %w", err)
	}

	return ChunkMetadata{
		DocumentID:    payload[fieldDocumentID].GetStringValue(),
		Filename:      payload[fieldFilename].GetStringValue(),
		ChunkIndex:    int(payload[fieldChunkIndex].GetIntegerValue()),
		TotalChunks:   int(payload[fieldTotalChunks].GetIntegerValue()),
		UploadedAt:    uploadedAt,
		FileSizeBytes: payload[fieldFileSizeBytes].GetIntegerValue(),
	}, nil
}
