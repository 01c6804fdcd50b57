package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragpipe/ragpipe/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8000", cfg.Listen)
	assert.Equal(t, EmbeddingReference, cfg.Embedding.Mode)
	assert.Equal(t, IndexMemory, cfg.Index.Backend)
	assert.Equal(t, 1000, cfg.Chunking.Size)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, 5, cfg.Query.TopK)
	assert.NoError(t, cfg.validate())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
listen = ":9999"

[chunking]
size = 500
overlap = 50

[embedding]
mode = "ollama"
base_url = "http://embedder:11434"
model = "nomic-embed-text"
dimensions = 768

[index]
backend = "qdrant"
url = "http://qdrant:6333"
collection = "docs"

[generation]
base_url = "http://llm:8080"
max_tokens = 512

[query]
top_k = 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Listen)
	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, EmbeddingOllama, cfg.Embedding.Mode)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
	assert.Equal(t, IndexQdrant, cfg.Index.Backend)
	assert.Equal(t, "docs", cfg.Index.Collection)
	assert.Equal(t, 512, cfg.Generation.MaxTokens)
	assert.Equal(t, 10, cfg.Query.TopK)

	// Untouched sections keep their defaults.
	assert.Equal(t, 0.7, cfg.Generation.Temperature)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadInvalidTOML(t *testing.T) {
	path := writeConfig(t, "listen = [broken")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown embedding mode", "[embedding]\nmode = \"magic\""},
		{"unknown index backend", "[index]\nbackend = \"redis\""},
		{"overlap exceeds size", "[chunking]\nsize = 100\noverlap = 100"},
		{"non-positive top_k", "[query]\ntop_k = 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
