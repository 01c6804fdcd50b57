// Package config loads the service configuration from a TOML file.
// Every field has a working default so the pipeline runs with no
// configuration at all, using the in-memory index and the deterministic
// embedder.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/ragpipe/ragpipe/internal/chunker"
	"github.com/ragpipe/ragpipe/internal/core/domain"
	"github.com/ragpipe/ragpipe/internal/core/services"
)

// Embedding modes.
const (
	EmbeddingReference = "reference"
	EmbeddingOllama    = "ollama"
)

// Index backends.
const (
	IndexMemory = "memory"
	IndexSQLite = "sqlite"
	IndexQdrant = "qdrant"
)

// Config is the full service configuration.
type Config struct {
	Listen     string           `toml:"listen"`
	Chunking   ChunkingConfig   `toml:"chunking"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Index      IndexConfig      `toml:"index"`
	Generation GenerationConfig `toml:"generation"`
	Query      QueryConfig      `toml:"query"`
}

// ChunkingConfig controls document splitting.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	Mode              string  `toml:"mode"`
	BaseURL           string  `toml:"base_url"`
	Model             string  `toml:"model"`
	Dimensions        int     `toml:"dimensions"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	Backend    string `toml:"backend"`
	Path       string `toml:"path"`
	URL        string `toml:"url"`
	APIKey     string `toml:"api_key"`
	Collection string `toml:"collection"`
}

// GenerationConfig configures the completion backend.
type GenerationConfig struct {
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	MaxTokens      int     `toml:"max_tokens"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// QueryConfig holds retrieval defaults.
type QueryConfig struct {
	TopK int `toml:"top_k"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Listen: ":8000",
		Chunking: ChunkingConfig{
			Size:    chunker.DefaultChunkSize,
			Overlap: chunker.DefaultOverlap,
		},
		Embedding: EmbeddingConfig{
			Mode:       EmbeddingReference,
			Dimensions: domain.DefaultVectorDimensions,
		},
		Index: IndexConfig{
			Backend: IndexMemory,
		},
		Generation: GenerationConfig{
			MaxTokens:   256,
			Temperature: 0.7,
		},
		Query: QueryConfig{
			TopK: services.DefaultTopK,
		},
	}
}

// Load reads the TOML file at path, layered over Default. An empty path
// returns the defaults; a missing file is an error since the path was
// given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Embedding.Mode {
	case EmbeddingReference, EmbeddingOllama:
	default:
		return fmt.Errorf("%w: unknown embedding mode %q", domain.ErrInvalidInput, c.Embedding.Mode)
	}

	switch c.Index.Backend {
	case IndexMemory, IndexSQLite, IndexQdrant:
	default:
		return fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidInput, c.Index.Backend)
	}

	if c.Chunking.Overlap < 0 || c.Chunking.Size <= c.Chunking.Overlap {
		return fmt.Errorf("%w: chunk size %d must exceed overlap %d",
			domain.ErrInvalidInput, c.Chunking.Size, c.Chunking.Overlap)
	}

	if c.Query.TopK <= 0 {
		return fmt.Errorf("%w: query top_k must be positive, got %d",
			domain.ErrInvalidInput, c.Query.TopK)
	}

	return nil
}
