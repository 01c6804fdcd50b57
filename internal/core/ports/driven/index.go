package driven

import (
	"context"

	"github.com/ragpipe/ragpipe/internal/core/domain"
)

// VectorIndex stores (id, vector, payload) entries and answers
// k-nearest-neighbour queries under cosine similarity.
//
// Concurrency: implementations must support concurrent reads and
// concurrent read+write without corrupting an entry; per-entry replace
// is atomic and last-write-wins, so concurrent upserts of the same ID
// are safe without caller coordination.
type VectorIndex interface {
	// Upsert inserts or fully replaces the entry for entry.ID. A vector
	// whose length differs from the collection dimension is rejected
	// with domain.ErrDimensionMismatch.
	Upsert(ctx context.Context, entry domain.IndexEntry) error

	// Query returns up to topK entries ranked by similarity, descending.
	// Ties are broken by ID lexical order so rankings are deterministic
	// across implementations.
	Query(ctx context.Context, vector []float32, topK int) ([]domain.ScoredEntry, error)

	// Delete removes the entry for id. Deleting a missing id is a no-op.
	Delete(ctx context.Context, id string) error

	// Reset destroys all entries and re-creates the collection with the
	// given dimension. This is an explicit administrative operation; it
	// is never performed implicitly at startup.
	Reset(ctx context.Context, dimension int) error

	// Dimensions returns the collection's configured vector size.
	Dimensions() int

	// Close releases resources.
	Close() error
}
