// Package mcp exposes the document Q&A core as MCP tools.
package mcp

import (
	"docqa/internal/docs"
	"docqa/internal/rag"
)

// AskDocsInput defines the input parameters for the ask_docs tool.
type AskDocsInput struct {
	// Query is the natural-language question to answer from the documents.
	Query string `json:"query" jsonschema:"required,description=The question to answer using only the ingested documents"`
	// TopK is how many chunks to retrieve as context.
	TopK int `json:"top_k,omitempty" jsonschema:"minimum=1,maximum=20,default=4,description=Number of chunks to retrieve as context"`
}

// AskDocsOutput is the structured answer with citations.
type AskDocsOutput struct {
	// Answer is the generated answer, or a canonical refusal.
	Answer string `json:"answer"`
	// Sources cites the retrieved chunks, most relevant first.
	Sources []rag.Source `json:"sources"`
	// ContextFound is false when retrieval returned nothing.
	ContextFound bool `json:"context_found"`
}

// IngestTextInput defines the input parameters for the ingest_text tool.
type IngestTextInput struct {
	// Text is the extracted plain text of the document.
	Text string `json:"text" jsonschema:"required,description=Extracted plain text content of the document"`
	// Filename is the display name recorded with every chunk.
	Filename string `json:"filename" jsonschema:"required,description=Original filename of the document"`
}

// IngestTextOutput reports the created document.
type IngestTextOutput struct {
	DocumentID    string `json:"document_id"`
	ChunksCreated int    `json:"chunks_created"`
}

// ListDocumentsInput takes no parameters.
type ListDocumentsInput struct{}

// ListDocumentsOutput lists every ingested document.
type ListDocumentsOutput struct {
	Documents []docs.DocumentInfo `json:"documents"`
	Count     int                 `json:"count"`
}

// RemoveDocumentInput defines the input parameters for remove_document.
type RemoveDocumentInput struct {
	// DocumentID identifies the logical document to remove.
	DocumentID string `json:"document_id" jsonschema:"required,description=ID of the document to remove"`
}

// RemoveDocumentOutput reports the removal. Removing an unknown document is
// not an error; Found is false and ChunksDeleted is zero.
type RemoveDocumentOutput struct {
	ChunksDeleted int  `json:"chunks_deleted"`
	Found         bool `json:"found"`
}
