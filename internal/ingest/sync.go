package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docqa/internal/docs"
	"docqa/internal/github"
	"docqa/internal/markdown"
)

// RepoSource lists and fetches documents from a remote repository.
// Satisfied by github.Fetcher.
type RepoSource interface {
	ListDocs(ctx context.Context) ([]string, error)
	FetchDoc(ctx context.Context, path string) (*github.Document, error)
	LatestCommitSHA(ctx context.Context) (string, error)
}

// SyncResult reports one repository sync run.
type SyncResult struct {
	TotalDocs      int
	SuccessfulDocs int
	TotalChunks    int
	FailedDocs     []FailedDoc
	CommitSHA      string
	Duration       time.Duration
}

// FailedDoc records a document that could not be synced.
type FailedDoc struct {
	Path   string
	Reason string
}

// Syncer ingests a repository's documents into the knowledge base. A file
// already present (same filename) is removed first, so a re-sync replaces
// documents instead of duplicating them.
type Syncer struct {
	source   RepoSource
	pipeline *Pipeline
	registry *docs.Registry
	logger   *slog.Logger
}

func NewSyncer(source RepoSource, pipeline *Pipeline, registry *docs.Registry, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		source:   source,
		pipeline: pipeline,
		registry: registry,
		logger:   logger,
	}
}

// SyncAll fetches every document from the source and ingests each one.
// Documents that fail to fetch or hold no extractable text are recorded and
// skipped; the run continues.
func (s *Syncer) SyncAll(ctx context.Context) (*SyncResult, error) {
	start := time.Now()
	result := &SyncResult{}

	commitSHA, err := s.source.LatestCommitSHA(ctx)
	if err != nil {
		return nil, fmt.Errorf("get commit SHA: %w", err)
	}
	result.CommitSHA = commitSHA
	s.logger.Info("starting sync", "commit", commitSHA)

	paths, err := s.source.ListDocs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list docs: %w", err)
	}
	result.TotalDocs = len(paths)
	s.logger.Info("found documents", "count", len(paths))

	existing, err := s.existingByFilename(ctx)
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		chunks, err := s.syncDocument(ctx, path, existing)
		if err != nil {
			s.logger.Warn("failed to sync document", "path", path, "error", err)
			result.FailedDocs = append(result.FailedDocs, FailedDoc{
				Path:   path,
				Reason: err.Error(),
			})
			continue
		}
		result.SuccessfulDocs++
		result.TotalChunks += chunks
	}

	result.Duration = time.Since(start)
	s.logger.Info("sync complete",
		"successful", result.SuccessfulDocs,
		"failed", len(result.FailedDocs),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)
	return result, nil
}

// syncDocument fetches one file, converts markdown to plain text, replaces
// any previous version, and ingests it. Returns the chunk count.
func (s *Syncer) syncDocument(ctx context.Context, path string, existing map[string]string) (int, error) {
	fetched, err := s.source.FetchDoc(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}

	text := fetched.Content
	if strings.HasSuffix(path, ".md") {
		text, err = markdown.ToPlainText([]byte(fetched.Content))
		if err != nil {
			return 0, fmt.Errorf("extract text: %w", err)
		}
		if title := markdown.Title([]byte(fetched.Content)); title != "" {
			s.logger.Debug("extracted markdown document", "path", path, "title", title)
		}
	}

	if oldID, ok := existing[path]; ok {
		removed, err := s.registry.Remove(ctx, oldID)
		if err != nil {
			return 0, fmt.Errorf("remove previous version: %w", err)
		}
		s.logger.Debug("replaced previous version", "path", path, "chunks_removed", removed)
	}

	res, err := s.pipeline.IngestText(ctx, text, path, int64(len(fetched.Content)))
	if err != nil {
		return 0, err
	}
	existing[path] = res.DocumentID
	return res.ChunksCreated, nil
}

// existingByFilename maps ingested filenames to document IDs so a re-sync
// replaces documents in place.
func (s *Syncer) existingByFilename(ctx context.Context) (map[string]string, error) {
	infos, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list existing documents: %w", err)
	}
	byName := make(map[string]string, len(infos))
	for _, info := range infos {
		byName[info.Filename] = info.DocumentID
	}
	return byName, nil
}
