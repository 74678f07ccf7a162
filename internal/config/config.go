// Package config loads HRAI configuration from an optional YAML file
// overlaid with HRAI_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds every value the ingestion pipeline and query engine need.
// The embedding dimension lives here once; both the embedder and the
// Qdrant adapter are constructed from the same value.
type Config struct {
	APIBaseURL         string `koanf:"api_base_url"`
	APIKey             string `koanf:"api_key"`
	LLMModel           string `koanf:"llm_model"`
	EmbeddingModel     string `koanf:"embedding_model"`
	EmbeddingDimension int    `koanf:"embedding_dimension"`
	QdrantHost         string `koanf:"qdrant_host"`
	QdrantPort         int    `koanf:"qdrant_port"`
	Collection         string `koanf:"collection"`
	CVDir              string `koanf:"cv_dir"`
	Port               int    `koanf:"port"`
	CORSAllowAll       bool   `koanf:"cors_allow_all"`
}

// Default returns the configuration defaults, matching a local
// Ollama-compatible endpoint and a local Qdrant instance.
func Default() *Config {
	return &Config{
		APIBaseURL:     "http://localhost:11434/v1",
		LLMModel:       "qwen2.5-coder:14b",
		EmbeddingModel: "snowflake-arctic-embed:latest",
		QdrantHost:     "localhost",
		QdrantPort:     6334,
		Collection:     "documents",
		CVDir:          "cvs",
		Port:           5000,
	}
}

// Load reads configuration from the given YAML file (if it exists), then
// overlays environment variable overrides (HRAI_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	// HRAI_QDRANT_HOST -> qdrant_host, etc.
	if err := k.Load(env.Provider("HRAI_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "HRAI_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration contains usable values. The
// embedding dimension is validated here, at startup, rather than being
// looked up independently by the embedder and the store.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	if c.LLMModel == "" {
		return fmt.Errorf("llm_model is required")
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("embedding_model is required")
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("embedding_dimension must be a positive integer, got %d", c.EmbeddingDimension)
	}
	if c.QdrantHost == "" {
		return fmt.Errorf("qdrant_host is required")
	}
	if c.QdrantPort <= 0 || c.QdrantPort > 65535 {
		return fmt.Errorf("qdrant_port must be a valid port, got %d", c.QdrantPort)
	}
	if c.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	return nil
}
