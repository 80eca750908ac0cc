// Package main provides the MCP server entry point for the document Q&A
// service.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"docqa/internal/chunker"
	"docqa/internal/docs"
	"docqa/internal/embedding"
	"docqa/internal/generation"
	"docqa/internal/ingest"
	mcpserver "docqa/internal/mcp"
	"docqa/internal/rag"
	"docqa/internal/storage"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Configuration from environment
	qdrantHost := getEnv("QDRANT_HOST", "localhost")
	qdrantPort := getEnvInt("QDRANT_PORT", 6334)
	chunkSize := getEnvInt("CHUNK_SIZE", 1000)
	chunkOverlap := getEnvInt("CHUNK_OVERLAP", 200)
	topK := getEnvInt("TOP_K", 4)
	port := getEnv("PORT", "8080")

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	// Initialize OpenAI-backed components
	openaiClient, err := embedding.NewClient(apiKey)
	if err != nil {
		log.Fatalf("failed to create OpenAI client: %v", err)
	}
	embedder := embedding.NewEmbedder(openaiClient, 0) // Use default batch size
	generator := generation.NewGenerator(openaiClient.Client(), slog.Default())

	// Initialize vector index
	index, err := storage.NewIndex(qdrantHost, qdrantPort, embedder)
	if err != nil {
		log.Fatalf("failed to connect to Qdrant: %v", err)
	}
	defer index.Close()

	if err := index.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure collection: %v", err)
	}

	// Wire the Q&A core
	splitter, err := chunker.NewSplitter(chunkSize, chunkOverlap)
	if err != nil {
		log.Fatalf("invalid chunking config: %v", err)
	}
	pipeline := ingest.NewPipeline(splitter, index, slog.Default())
	registry := docs.NewRegistry(index)
	orchestrator := rag.NewOrchestrator(index, generator, slog.Default())

	// Create MCP server
	server := mcpserver.NewServer(&mcpserver.Config{
		Asker:       orchestrator,
		Ingester:    pipeline,
		Documents:   registry,
		DefaultTopK: topK,
	})

	// Create HTTP server with multiple endpoints
	mux := http.NewServeMux()
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(index))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server))

	// Check if running in server mode (HTTP) or stdio mode (local development)
	serverMode := getEnv("SERVER_MODE", "false") == "true"

	if serverMode {
		// HTTP mode: serve MCP over HTTP for remote clients
		addr := "0.0.0.0:" + port
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	} else {
		// Stdio mode: run MCP server over stdin/stdout for local clients
		// Also start HTTP health endpoint in background for local testing
		go func() {
			addr := "0.0.0.0:" + port
			log.Printf("Starting health server on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("Health server error: %v", err)
			}
		}()

		log.Println("Starting document Q&A MCP server (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
	}
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
