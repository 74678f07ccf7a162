// Package main provides the CV ingestion CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/musdechocolate/hrai/internal/config"
	"github.com/musdechocolate/hrai/internal/embedding"
	"github.com/musdechocolate/hrai/internal/extract"
	"github.com/musdechocolate/hrai/internal/indexer"
	"github.com/musdechocolate/hrai/internal/metadata"
	"github.com/musdechocolate/hrai/internal/storage"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "hrai-index",
	Short: "HRAI CV indexing tool",
	Long:  "CLI tool for ingesting CV PDFs into the Qdrant-backed HRAI index",
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Ingest every CV PDF in a directory",
	Long: `Extracts text and structured metadata from each PDF, computes an
embedding, and stores the combined record in Qdrant. Per-file failures
are reported and do not abort the batch.

Environment variables (HRAI_ prefix, .env supported):
  HRAI_API_BASE_URL         OpenAI-compatible endpoint
  HRAI_API_KEY              API key
  HRAI_LLM_MODEL            completion model for metadata extraction
  HRAI_EMBEDDING_MODEL      embedding model
  HRAI_EMBEDDING_DIMENSION  embedding vector dimension (required)
  HRAI_QDRANT_HOST          Qdrant hostname (default: localhost)
  HRAI_QDRANT_PORT          Qdrant gRPC port (default: 6334)
  HRAI_COLLECTION           collection name (default: documents)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "hrai.yml", "path to YAML config file")
	rootCmd.AddCommand(ingestCmd)
}

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir := cfg.CVDir
	if len(args) > 0 {
		dir = args[0]
	}

	fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.QdrantHost, cfg.QdrantPort)
	store, err := storage.NewQdrantStorage(cfg.QdrantHost, cfg.QdrantPort, cfg.Collection, cfg.EmbeddingDimension)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer store.Close()

	if err := store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	client, err := embedding.NewClient(cfg.APIBaseURL, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingDimension)
	extractor := metadata.NewExtractor(client.Client(), cfg.LLMModel)

	bar := progressbar.Default(-1, "ingesting CVs")
	pipeline := indexer.NewPipeline(
		extract.NewPDFExtractor(),
		extractor,
		embedder,
		store,
		indexer.WithDocumentHook(func(path string, err error) {
			_ = bar.Add(1)
		}),
	)

	fmt.Printf("Ingesting CVs from %s...\n", dir)
	result, err := pipeline.IngestDirectory(ctx, dir)
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Ingestion complete!")
	fmt.Printf("  CVs: %d/%d\n", result.Succeeded, result.Total)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))

	if len(result.Failed) > 0 {
		fmt.Println()
		fmt.Println("Failed files:")
		for _, failed := range result.Failed {
			fmt.Printf("  - %s: %s\n", failed.Path, failed.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))

	if result.Total > 0 && result.Succeeded == 0 {
		return fmt.Errorf("no CVs could be ingested")
	}
	return nil
}
