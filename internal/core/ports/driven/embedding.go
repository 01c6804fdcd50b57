package driven

import "context"

// EmbeddingService maps text to a fixed-dimension vector. For a given
// input the output must be deterministic: ingestion idempotence relies
// on re-embedding an unchanged chunk producing the same vector.
//
// Implementations:
//   - reference: hash-seeded pseudo-random vectors, offline, bit-identical
//     across processes (a development placeholder, not semantic)
//   - ollama: model-backed embeddings from an Ollama server
//
// A model-backed implementation must surface backend failure to the
// caller as an error; it never silently falls back to the reference mode.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384, 768).
	// Must match the vector index's configured dimension.
	Dimensions() int

	// ModelName identifies the embedding model or mode in use.
	ModelName() string

	// Close releases resources.
	Close() error
}
