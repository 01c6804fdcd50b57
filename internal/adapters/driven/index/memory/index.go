// Package memory provides an in-memory vector index. It is the default
// backend for development and tests; entries do not survive a restart.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ragpipe/ragpipe/internal/core/domain"
	"github.com/ragpipe/ragpipe/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores entries in a mutex-guarded map and answers queries by
// brute-force cosine scan. Safe for concurrent use; per-entry replace is
// atomic and last-write-wins.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	entries    map[string]domain.IndexEntry
}

// New creates an empty index with the given vector dimension.
func New(dimensions int) *Index {
	if dimensions <= 0 {
		dimensions = domain.DefaultVectorDimensions
	}
	return &Index{
		dimensions: dimensions,
		entries:    make(map[string]domain.IndexEntry),
	}
}

// Upsert inserts or fully replaces the entry for entry.ID.
func (x *Index) Upsert(_ context.Context, entry domain.IndexEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("%w: entry id is empty", domain.ErrInvalidInput)
	}

	// Copy the vector so later caller mutations cannot corrupt the entry.
	vec := make([]float32, len(entry.Vector))
	copy(vec, entry.Vector)
	entry.Vector = vec

	x.mu.Lock()
	defer x.mu.Unlock()
	if len(entry.Vector) != x.dimensions {
		return fmt.Errorf("%w: got %d, index expects %d",
			domain.ErrDimensionMismatch, len(entry.Vector), x.dimensions)
	}
	x.entries[entry.ID] = entry
	return nil
}

// Query returns up to topK entries ranked by cosine similarity,
// descending, with ties broken by ID lexical order.
func (x *Index) Query(_ context.Context, vector []float32, topK int) ([]domain.ScoredEntry, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", domain.ErrInvalidInput, topK)
	}

	x.mu.RLock()
	if len(vector) != x.dimensions {
		x.mu.RUnlock()
		return nil, fmt.Errorf("%w: got %d, index expects %d",
			domain.ErrDimensionMismatch, len(vector), x.dimensions)
	}
	scored := make([]domain.ScoredEntry, 0, len(x.entries))
	for _, entry := range x.entries {
		// Copy the stored vector on the way out as well, so a caller
		// mutating a result cannot corrupt the index.
		vec := make([]float32, len(entry.Vector))
		copy(vec, entry.Vector)
		score := cosine(vector, entry.Vector)
		entry.Vector = vec
		scored = append(scored, domain.ScoredEntry{
			Entry: entry,
			Score: score,
		})
	}
	x.mu.RUnlock()

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Entry.ID < scored[j].Entry.ID
	})

	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

// Delete removes the entry for id. Deleting a missing id is a no-op.
func (x *Index) Delete(_ context.Context, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.entries, id)
	return nil
}

// Reset destroys all entries and re-creates the collection with the
// given dimension.
func (x *Index) Reset(_ context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", domain.ErrInvalidInput, dimensions)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.dimensions = dimensions
	x.entries = make(map[string]domain.IndexEntry)
	return nil
}

// Dimensions returns the collection's configured vector size.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dimensions
}

// Len returns the number of stored entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// cosine computes the cosine similarity between two equal-length vectors.
// Returns 0 when either vector has zero norm.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
