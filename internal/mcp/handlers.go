package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"docqa/internal/docs"
	"docqa/internal/ingest"
	"docqa/internal/rag"
	"docqa/internal/storage"
)

// Asker answers questions from the ingested documents.
type Asker interface {
	Ask(ctx context.Context, query string, topK int) (*rag.Answer, error)
}

// Ingester turns raw text into indexed chunks.
type Ingester interface {
	IngestText(ctx context.Context, text, filename string, fileSize int64) (*ingest.Result, error)
}

// DocumentStore lists and removes logical documents.
type DocumentStore interface {
	List(ctx context.Context) ([]docs.DocumentInfo, error)
	Remove(ctx context.Context, documentID string) (int, error)
}

// makeAskHandler creates the ask_docs tool handler.
// Defaults TopK when the caller omits it; everything else is delegated to the
// orchestrator, including the empty-retrieval refusal.
func makeAskHandler(asker Asker, defaultTopK int) func(
	context.Context, *mcp.CallToolRequest, AskDocsInput,
) (*mcp.CallToolResult, AskDocsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskDocsInput) (
		*mcp.CallToolResult, AskDocsOutput, error,
	) {
		topK := input.TopK
		if topK <= 0 {
			topK = defaultTopK
		}

		answer, err := asker.Ask(ctx, input.Query, topK)
		if err != nil {
			if errors.Is(err, storage.ErrEmptyQuery) {
				return nil, AskDocsOutput{}, fmt.Errorf("query must not be empty")
			}
			return nil, AskDocsOutput{}, fmt.Errorf("failed to answer query: %w", err)
		}

		return nil, AskDocsOutput{
			Answer:       answer.Answer,
			Sources:      answer.Sources,
			ContextFound: answer.ContextFound,
		}, nil
	}
}

// makeIngestHandler creates the ingest_text tool handler.
func makeIngestHandler(ingester Ingester) func(
	context.Context, *mcp.CallToolRequest, IngestTextInput,
) (*mcp.CallToolResult, IngestTextOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestTextInput) (
		*mcp.CallToolResult, IngestTextOutput, error,
	) {
		filename := strings.TrimSpace(input.Filename)
		if filename == "" {
			return nil, IngestTextOutput{}, fmt.Errorf("filename must not be empty")
		}

		result, err := ingester.IngestText(ctx, input.Text, filename, 0)
		if err != nil {
			if errors.Is(err, ingest.ErrNoContent) {
				return nil, IngestTextOutput{}, fmt.Errorf("document contains no extractable text")
			}
			return nil, IngestTextOutput{}, fmt.Errorf("failed to ingest document: %w", err)
		}

		return nil, IngestTextOutput{
			DocumentID:    result.DocumentID,
			ChunksCreated: result.ChunksCreated,
		}, nil
	}
}

// makeListHandler creates the list_documents tool handler.
func makeListHandler(store DocumentStore) func(
	context.Context, *mcp.CallToolRequest, ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (
		*mcp.CallToolResult, ListDocumentsOutput, error,
	) {
		infos, err := store.List(ctx)
		if err != nil {
			return nil, ListDocumentsOutput{}, fmt.Errorf("failed to list documents: %w", err)
		}
		if infos == nil {
			infos = []docs.DocumentInfo{} // Ensure non-nil for JSON marshaling
		}

		return nil, ListDocumentsOutput{
			Documents: infos,
			Count:     len(infos),
		}, nil
	}
}

// makeRemoveHandler creates the remove_document tool handler.
func makeRemoveHandler(store DocumentStore) func(
	context.Context, *mcp.CallToolRequest, RemoveDocumentInput,
) (*mcp.CallToolResult, RemoveDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RemoveDocumentInput) (
		*mcp.CallToolResult, RemoveDocumentOutput, error,
	) {
		documentID := strings.TrimSpace(input.DocumentID)
		if documentID == "" {
			return nil, RemoveDocumentOutput{}, fmt.Errorf("document_id must not be empty")
		}

		deleted, err := store.Remove(ctx, documentID)
		if err != nil {
			return nil, RemoveDocumentOutput{}, fmt.Errorf("failed to remove document: %w", err)
		}

		return nil, RemoveDocumentOutput{
			ChunksDeleted: deleted,
			Found:         deleted > 0,
		}, nil
	}
}
