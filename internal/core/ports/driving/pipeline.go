package driving

import (
	"context"

	"github.com/ragpipe/ragpipe/internal/core/domain"
)

// IngestPipeline is the ingestion side of the orchestrator:
// document -> chunker -> embedding -> index upsert.
type IngestPipeline interface {
	// Ingest chunks, embeds, and indexes a document. A per-chunk failure
	// does not abort the run; the summary reports every outcome.
	// The returned error is reserved for request-level problems
	// (validation); partial failure is reported through the summary.
	Ingest(ctx context.Context, doc domain.Document) (*domain.IngestSummary, error)
}

// AnswerPipeline is the query-serving side of the orchestrator:
// query -> retrieval -> generation.
type AnswerPipeline interface {
	// Answer retrieves context passages for the query and conditions the
	// generation backend on them.
	Answer(ctx context.Context, req domain.AnswerRequest) (*domain.AnswerResult, error)

	// Retrieve embeds the query and returns the topK most similar
	// passages, descending by score. topK must be positive.
	Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredEntry, error)
}
