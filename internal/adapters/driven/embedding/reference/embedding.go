// Package reference provides an offline, deterministic embedding service.
//
// It is a development and testing placeholder, not a semantic embedding:
// each token maps to a pseudo-random vector seeded by a hash of the
// token, and a text embeds as the unit-normalized sum of its token
// vectors. Texts sharing tokens therefore score higher than unrelated
// texts, and any two processes embedding the same text produce
// bit-identical output, which cross-process idempotence tests rely on.
package reference

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand"
	"strings"
	"unicode"

	"github.com/ragpipe/ragpipe/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the default vector size, matching the
// all-MiniLM class of embedding models.
const DefaultDimensions = 384

// EmbeddingService generates deterministic hash-seeded vectors.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a reference embedding service. A
// non-positive dimensions falls back to DefaultDimensions.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed sums a hash-seeded normal draw per token and unit-normalizes
// the result. Text with no tokens (empty or punctuation only) falls
// back to a single draw seeded by the whole text. Pure function of its
// input; the error is always nil and exists to satisfy the interface.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		tokens = []string{text}
	}

	raw := make([]float64, s.dimensions)
	for _, token := range tokens {
		rng := rand.New(rand.NewSource(seedFor(token)))
		for i := range raw {
			raw[i] += rng.NormFloat64()
		}
	}

	var norm float64
	for _, v := range raw {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, s.dimensions)
	if norm == 0 {
		return vec, nil
	}
	for i, v := range raw {
		vec[i] = float32(v / norm)
	}
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName identifies the reference mode.
func (s *EmbeddingService) ModelName() string {
	return "reference-sha256"
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// tokenize lowercases the text and splits it on anything that is not a
// letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// seedFor derives a deterministic generator seed from SHA-256 of s.
func seedFor(s string) int64 {
	sum := sha256.Sum256([]byte(s))
	return int64(binary.LittleEndian.Uint64(sum[:8]))
}
