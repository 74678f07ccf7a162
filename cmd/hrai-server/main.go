// Package main provides the HRAI search API server.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/musdechocolate/hrai/internal/config"
	"github.com/musdechocolate/hrai/internal/embedding"
	"github.com/musdechocolate/hrai/internal/search"
	"github.com/musdechocolate/hrai/internal/server"
	"github.com/musdechocolate/hrai/internal/storage"
)

func main() {
	configPath := flag.String("config", "hrai.yml", "path to YAML config file")
	flag.Parse()

	// Load .env if present (local development), ignore if missing.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	store, err := storage.NewQdrantStorage(cfg.QdrantHost, cfg.QdrantPort, cfg.Collection, cfg.EmbeddingDimension)
	if err != nil {
		log.Fatalf("failed to connect to Qdrant: %v", err)
	}
	defer store.Close()

	if err := store.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure collection: %v", err)
	}

	client, err := embedding.NewClient(cfg.APIBaseURL, cfg.APIKey)
	if err != nil {
		log.Fatalf("failed to create API client: %v", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingDimension)
	engine := search.NewEngine(embedder, store)

	srv := server.New(server.Config{
		Port:         cfg.Port,
		CORSAllowAll: cfg.CORSAllowAll,
	}, store, engine, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	case <-ctx.Done():
		log.Println("shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}
