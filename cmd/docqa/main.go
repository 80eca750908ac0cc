// Package main provides the admin CLI for the document Q&A knowledge base.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docqa/internal/chunker"
	"docqa/internal/docs"
	"docqa/internal/embedding"
	"docqa/internal/generation"
	ghclient "docqa/internal/github"
	"docqa/internal/ingest"
	"docqa/internal/markdown"
	"docqa/internal/rag"
	"docqa/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Document Q&A knowledge base tool",
	Long: `CLI tool for managing the document Q&A knowledge base in Qdrant.

Environment variables:
  QDRANT_HOST    Qdrant hostname (default: localhost)
  QDRANT_PORT    Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY OpenAI API key for embeddings and generation (required)
  CHUNK_SIZE     Max characters per chunk (default: 1000)
  CHUNK_OVERLAP  Characters of overlap between chunks (default: 200)
  TOP_K          Default number of chunks retrieved per query (default: 4)
  GITHUB_TOKEN   GitHub token for higher rate limits (optional, sync only)`,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a text or markdown file into the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Ask a question answered only from the ingested documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents in the knowledge base",
	RunE:  runList,
}

var rmCmd = &cobra.Command{
	Use:   "rm <document-id>",
	Short: "Remove a document and all of its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ingest all documents from a GitHub repository directory",
	Long: `Fetches every .md and .txt file under the given repository path and
ingests each one. A file already in the knowledge base under the same
name is replaced.`,
	RunE: runSync,
}

var (
	askTopK  int
	syncRepo struct {
		owner string
		repo  string
		path  string
	}
)

func init() {
	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "number of chunks to retrieve (default from TOP_K)")

	syncCmd.Flags().StringVar(&syncRepo.owner, "owner", "", "repository owner (required)")
	syncCmd.Flags().StringVar(&syncRepo.repo, "repo", "", "repository name (required)")
	syncCmd.Flags().StringVar(&syncRepo.path, "path", "docs", "directory within the repository")
	syncCmd.MarkFlagRequired("owner")
	syncCmd.MarkFlagRequired("repo")

	rootCmd.AddCommand(ingestCmd, askCmd, listCmd, rmCmd, syncCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired components every subcommand needs.
type app struct {
	index        *storage.Index
	pipeline     *ingest.Pipeline
	registry     *docs.Registry
	orchestrator *rag.Orchestrator
	topK         int
}

// newApp connects to Qdrant and OpenAI and wires the Q&A core. The caller
// must Close the returned app.
func newApp(ctx context.Context) (*app, error) {
	qdrantHost := getEnv("QDRANT_HOST", "localhost")
	qdrantPort := getEnvInt("QDRANT_PORT", 6334)

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	openaiClient, err := embedding.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	embedder := embedding.NewEmbedder(openaiClient, 0)
	generator := generation.NewGenerator(openaiClient.Client(), slog.Default())

	index, err := storage.NewIndex(qdrantHost, qdrantPort, embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	if err := index.EnsureCollection(ctx); err != nil {
		index.Close()
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}

	splitter, err := chunker.NewSplitter(
		getEnvInt("CHUNK_SIZE", 1000),
		getEnvInt("CHUNK_OVERLAP", 200),
	)
	if err != nil {
		index.Close()
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}

	return &app{
		index:        index,
		pipeline:     ingest.NewPipeline(splitter, index, slog.Default()),
		registry:     docs.NewRegistry(index),
		orchestrator: rag.NewOrchestrator(index, generator, slog.Default()),
		topK:         getEnvInt("TOP_K", 4),
	}, nil
}

func (a *app) Close() {
	a.index.Close()
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	path := args[0]
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	text := string(raw)
	if strings.HasSuffix(path, ".md") {
		text, err = markdown.ToPlainText(raw)
		if err != nil {
			return fmt.Errorf("failed to extract text from %s: %w", path, err)
		}
	}

	result, err := a.pipeline.IngestText(ctx, text, filepath.Base(path), int64(len(raw)))
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Printf("Ingested %s\n", filepath.Base(path))
	fmt.Printf("  Document ID: %s\n", result.DocumentID)
	fmt.Printf("  Chunks: %d\n", result.ChunksCreated)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	topK := askTopK
	if topK <= 0 {
		topK = a.topK
	}

	answer, err := a.orchestrator.Ask(ctx, args[0], topK)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	fmt.Println(answer.Answer)

	if len(answer.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, src := range answer.Sources {
			fmt.Printf("  - %s (chunk %s, relevance %.2f)\n",
				src.DocumentName, src.ChunkID, src.RelevanceScore)
		}
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	infos, err := a.registry.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No documents in the knowledge base.")
		return nil
	}

	fmt.Printf("%d document(s):\n", len(infos))
	for _, info := range infos {
		fmt.Printf("  %s  %s  (%d chunks, uploaded %s)\n",
			info.DocumentID,
			info.Filename,
			info.ChunkCount,
			info.UploadedAt.Format(time.RFC3339),
		)
	}
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	deleted, err := a.registry.Remove(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}

	if deleted == 0 {
		fmt.Printf("No document found with ID %s\n", args[0])
		return nil
	}
	fmt.Printf("Removed %d chunk(s)\n", deleted)
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	gh, err := ghclient.NewClient(os.Getenv("GITHUB_TOKEN"))
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}
	fetcher := ghclient.NewFetcher(gh, syncRepo.owner, syncRepo.repo, syncRepo.path)

	fmt.Printf("Syncing %s/%s (%s)...\n", syncRepo.owner, syncRepo.repo, syncRepo.path)
	fmt.Println()

	syncer := ingest.NewSyncer(fetcher, a.pipeline, a.registry, slog.Default())
	result, err := syncer.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Println("Sync complete!")
	fmt.Printf("  Documents: %d/%d\n", result.SuccessfulDocs, result.TotalDocs)
	fmt.Printf("  Chunks: %d\n", result.TotalChunks)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))
	fmt.Printf("  Commit: %s\n", result.CommitSHA)

	if len(result.FailedDocs) > 0 {
		fmt.Println()
		fmt.Println("Failed documents:")
		for _, failed := range result.FailedDocs {
			fmt.Printf("  - %s: %s\n", failed.Path, failed.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
