// Package app assembles the pipeline from configuration: it picks the
// embedding backend, the index backend and the generation client, and
// wires them into the core services.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ragpipe/ragpipe/internal/adapters/driven/embedding/ollama"
	"github.com/ragpipe/ragpipe/internal/adapters/driven/embedding/reference"
	"github.com/ragpipe/ragpipe/internal/adapters/driven/generation/openai"
	"github.com/ragpipe/ragpipe/internal/adapters/driven/index/memory"
	"github.com/ragpipe/ragpipe/internal/adapters/driven/index/qdrant"
	"github.com/ragpipe/ragpipe/internal/adapters/driven/index/sqlite"
	"github.com/ragpipe/ragpipe/internal/chunker"
	"github.com/ragpipe/ragpipe/internal/config"
	"github.com/ragpipe/ragpipe/internal/core/domain"
	"github.com/ragpipe/ragpipe/internal/core/ports/driven"
	"github.com/ragpipe/ragpipe/internal/core/services"
)

// App holds the assembled pipeline and its backends.
type App struct {
	Config   config.Config
	Embedder driven.EmbeddingService
	Index    driven.VectorIndex
	Ingest   *services.IngestService
	Answer   *services.AnswerService
}

// New builds the pipeline described by cfg.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	index, err := buildIndex(ctx, cfg, embedder.Dimensions())
	if err != nil {
		embedder.Close() //nolint:errcheck
		return nil, err
	}

	splitter, err := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	if err != nil {
		embedder.Close() //nolint:errcheck
		index.Close()    //nolint:errcheck
		return nil, err
	}

	generator := openai.NewGenerationService(openai.Config{
		BaseURL: cfg.Generation.BaseURL,
		Model:   cfg.Generation.Model,
		Timeout: time.Duration(cfg.Generation.TimeoutSeconds) * time.Second,
	})
	gateway := services.NewGateway(generator)

	return &App{
		Config:   cfg,
		Embedder: embedder,
		Index:    index,
		Ingest:   services.NewIngestService(splitter, embedder, index),
		Answer:   services.NewAnswerService(embedder, index, gateway),
	}, nil
}

// Close releases all backend resources.
func (a *App) Close() error {
	var firstErr error
	if err := a.Index.Close(); err != nil {
		firstErr = err
	}
	if err := a.Embedder.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func buildEmbedder(cfg config.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Mode {
	case config.EmbeddingReference:
		return reference.NewEmbeddingService(cfg.Embedding.Dimensions), nil
	case config.EmbeddingOllama:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:           cfg.Embedding.BaseURL,
			Model:             cfg.Embedding.Model,
			Dimensions:        cfg.Embedding.Dimensions,
			Timeout:           time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
			RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding mode %q", domain.ErrInvalidInput, cfg.Embedding.Mode)
	}
}

func buildIndex(ctx context.Context, cfg config.Config, dimensions int) (driven.VectorIndex, error) {
	switch cfg.Index.Backend {
	case config.IndexMemory:
		return memory.New(dimensions), nil
	case config.IndexSQLite:
		path := cfg.Index.Path
		if path == "" {
			path = "ragpipe.db"
		}
		return sqlite.New(path, dimensions)
	case config.IndexQdrant:
		return qdrant.New(ctx, qdrant.Config{
			BaseURL:    cfg.Index.URL,
			APIKey:     cfg.Index.APIKey,
			Collection: cfg.Index.Collection,
			Dimensions: dimensions,
		})
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidInput, cfg.Index.Backend)
	}
}
