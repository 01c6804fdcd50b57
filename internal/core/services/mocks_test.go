package services

import (
	"context"
	"sync"

	"github.com/ragpipe/ragpipe/internal/core/domain"
	"github.com/ragpipe/ragpipe/internal/core/ports/driven"
)

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	mu      sync.Mutex
	embedFn func(text string) ([]float32, error)
	calls   []string
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int   { return 3 }
func (m *mockEmbedder) ModelName() string { return "mock-embedder" }
func (m *mockEmbedder) Close() error      { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockIndex implements driven.VectorIndex for testing. Upserts are
// recorded in call order.
type mockIndex struct {
	mu       sync.Mutex
	upsertFn func(entry domain.IndexEntry) error
	queryFn  func(vector []float32, topK int) ([]domain.ScoredEntry, error)
	upserts  []domain.IndexEntry
}

var _ driven.VectorIndex = (*mockIndex)(nil)

func (m *mockIndex) Upsert(_ context.Context, entry domain.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.upsertFn != nil {
		if err := m.upsertFn(entry); err != nil {
			return err
		}
	}
	m.upserts = append(m.upserts, entry)
	return nil
}

func (m *mockIndex) Query(_ context.Context, vector []float32, topK int) ([]domain.ScoredEntry, error) {
	if m.queryFn != nil {
		return m.queryFn(vector, topK)
	}
	return nil, nil
}

func (m *mockIndex) Delete(context.Context, string) error { return nil }
func (m *mockIndex) Reset(context.Context, int) error     { return nil }
func (m *mockIndex) Dimensions() int                      { return 3 }
func (m *mockIndex) Close() error                         { return nil }

func (m *mockIndex) upserted() []domain.IndexEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.IndexEntry, len(m.upserts))
	copy(out, m.upserts)
	return out
}

// mockGenerator implements driven.GenerationService for testing.
type mockGenerator struct {
	mu         sync.Mutex
	completeFn func(prompt string, opts driven.GenerateOptions) (string, error)
	prompts    []string
}

var _ driven.GenerationService = (*mockGenerator)(nil)

func (m *mockGenerator) Complete(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.completeFn != nil {
		return m.completeFn(prompt, opts)
	}
	return "Answer: mock answer", nil
}

func (m *mockGenerator) ModelName() string { return "mock-generator" }
func (m *mockGenerator) Close() error      { return nil }

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *mockGenerator) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}
