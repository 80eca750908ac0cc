// Package rag turns a query into a grounded, cited answer.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"docqa/internal/storage"
)

// Retriever is the read side of the vector index.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]storage.SearchResult, error)
}

// Generator produces the answer text for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Source cites one retrieved chunk. Page is always nil: page numbers are not
// available from extracted plain text.
type Source struct {
	DocumentName   string  `json:"document_name"`
	Page           *int    `json:"page"`
	ChunkID        string  `json:"chunk_id"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Answer is the structured response for one query.
type Answer struct {
	Answer       string   `json:"answer"`
	Sources      []Source `json:"sources"`
	ContextFound bool     `json:"context_found"`
}

// Orchestrator runs the retrieve, assemble, generate, cite pipeline. It
// holds no state between queries and never retries; transient provider
// failures propagate so the caller can retry the whole request.
type Orchestrator struct {
	retriever Retriever
	generator Generator
	logger    *slog.Logger
}

// NewOrchestrator wires the orchestrator with explicit collaborators so the
// embedding and generation boundaries can be replaced in tests.
func NewOrchestrator(retriever Retriever, generator Generator, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		retriever: retriever,
		generator: generator,
		logger:    logger,
	}
}

// Ask answers a query from the ingested documents only. An empty retrieval
// is a normal terminal state: the canonical no-information answer comes back
// with no sources. Grounding is enforced through the prompt policy; the
// generator's reply is returned verbatim, without a second-pass verifier.
func (o *Orchestrator) Ask(ctx context.Context, query string, topK int) (*Answer, error) {
	results, err := o.retriever.Search(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	if len(results) == 0 {
		o.logger.Info("no context found", "top_k", topK)
		return &Answer{
			Answer:       NoInformationAnswer,
			Sources:      []Source{},
			ContextFound: false,
		}, nil
	}

	prompt := buildPrompt(formatContext(results), query)

	answer, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	o.logger.Info("query answered", "results", len(results), "answer_chars", len(answer))

	return &Answer{
		Answer:       answer,
		Sources:      formatSources(results),
		ContextFound: true,
	}, nil
}

// formatContext renders the retrieved chunks, in retrieval order, with their
// source filename, position within the document, and display relevance.
func formatContext(results []storage.SearchResult) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, `
Document %d: %s
(Chunk %d of %d)
Relevance Score: %.2f

Content:
%s
---
`,
			i+1,
			r.Metadata.Filename,
			r.Metadata.ChunkIndex+1,
			r.Metadata.TotalChunks,
			relevance(r),
			r.Text,
		)
	}
	return b.String()
}

// formatSources maps results to citations, preserving retrieval order.
func formatSources(results []storage.SearchResult) []Source {
	sources := make([]Source, len(results))
	for i, r := range results {
		sources[i] = Source{
			DocumentName:   r.Metadata.Filename,
			Page:           nil,
			ChunkID:        r.ChunkID,
			RelevanceScore: relevance(r),
		}
	}
	return sources
}

// relevance converts the index distance into a display similarity. With the
// cosine metric this lands in [0,1] for normalized embeddings; it is an
// approximation for display, not a probability.
func relevance(r storage.SearchResult) float64 {
	return 1 - r.Distance
}
