package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434/v1", cfg.APIBaseURL)
	assert.Equal(t, "localhost", cfg.QdrantHost)
	assert.Equal(t, 6334, cfg.QdrantPort)
	assert.Equal(t, "documents", cfg.Collection)
	assert.Equal(t, 5000, cfg.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HRAI_API_KEY", "test-key")
	t.Setenv("HRAI_EMBEDDING_DIMENSION", "1024")
	t.Setenv("HRAI_COLLECTION", "resumes")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, 1024, cfg.EmbeddingDimension)
	assert.Equal(t, "resumes", cfg.Collection)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hrai.yml")
	content := "collection: candidates\nembedding_dimension: 768\nqdrant_port: 7334\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "candidates", cfg.Collection)
	assert.Equal(t, 768, cfg.EmbeddingDimension)
	assert.Equal(t, 7334, cfg.QdrantPort)
	// Untouched fields keep defaults.
	assert.Equal(t, "localhost", cfg.QdrantHost)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hrai.yml")
	require.NoError(t, os.WriteFile(path, []byte("collection: from-file\n"), 0o644))
	t.Setenv("HRAI_COLLECTION", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Collection)
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, "documents", cfg.Collection)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.EmbeddingDimension = 1024
		return cfg
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.EmbeddingDimension = 0
	assert.ErrorContains(t, cfg.Validate(), "embedding_dimension")

	cfg = valid()
	cfg.APIBaseURL = ""
	assert.ErrorContains(t, cfg.Validate(), "api_base_url")

	cfg = valid()
	cfg.Collection = ""
	assert.ErrorContains(t, cfg.Validate(), "collection")

	cfg = valid()
	cfg.QdrantPort = -1
	assert.ErrorContains(t, cfg.Validate(), "qdrant_port")
}
