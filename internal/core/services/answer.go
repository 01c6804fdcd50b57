package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ragpipe/ragpipe/internal/core/domain"
	"github.com/ragpipe/ragpipe/internal/core/ports/driven"
	"github.com/ragpipe/ragpipe/internal/core/ports/driving"
	"github.com/ragpipe/ragpipe/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerPipeline = (*AnswerService)(nil)

// DefaultTopK is the number of passages retrieved when a request leaves
// TopK unset.
const DefaultTopK = 5

// AnswerService retrieves relevant chunks and asks the generation
// gateway to answer from them. Answering never mutates the index.
type AnswerService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	gateway  *Gateway
}

// NewAnswerService creates a query pipeline.
func NewAnswerService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	gateway *Gateway,
) *AnswerService {
	return &AnswerService{
		embedder: embedder,
		index:    index,
		gateway:  gateway,
	}
}

// Retrieve embeds the query and returns the topK closest chunks in
// score order.
func (s *AnswerService) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", domain.ErrInvalidInput, topK)
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.index.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	return results, nil
}

// Answer retrieves context for the question and generates an answer.
// When nothing has been ingested yet, the gateway is still called with
// an empty context so the model can answer from the question alone.
func (s *AnswerService) Answer(ctx context.Context, req domain.AnswerRequest) (*domain.AnswerResult, error) {
	topK := req.TopK
	if topK == 0 {
		topK = DefaultTopK
	}

	logger.Section("Answer")
	logger.Debug("Query: %q (top_k=%d)", req.Query, topK)

	results, err := s.Retrieve(ctx, req.Query, topK)
	if err != nil {
		return nil, err
	}
	logger.Debug("Retrieved %d passages", len(results))

	passages := make([]string, len(results))
	for i, r := range results {
		passages[i] = r.Entry.Payload.Text
	}

	answer, err := s.gateway.Answer(ctx, strings.TrimSpace(req.Query), passages, driven.GenerateOptions{
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}

	return &domain.AnswerResult{
		Answer:  answer,
		Sources: sources(results),
	}, nil
}

// sources converts retrieval results into answer provenance,
// preserving score order.
func sources(results []domain.ScoredEntry) []domain.SourcePassage {
	out := make([]domain.SourcePassage, len(results))
	for i, r := range results {
		out[i] = domain.SourcePassage{
			Text:    r.Entry.Payload.Text,
			Source:  r.Entry.Payload.Source,
			Title:   r.Entry.Payload.Title,
			Ordinal: r.Entry.Payload.Ordinal,
			Score:   r.Score,
		}
	}
	return out
}
