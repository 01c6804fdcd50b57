package mcp

import (
	"context"

	"github.com/ragpipe/ragpipe/internal/core/domain"
)

// mockIngestPipeline is a mock implementation of driving.IngestPipeline.
type mockIngestPipeline struct {
	summary *domain.IngestSummary
	err     error
	lastDoc domain.Document
}

func (m *mockIngestPipeline) Ingest(_ context.Context, doc domain.Document) (*domain.IngestSummary, error) {
	m.lastDoc = doc
	return m.summary, m.err
}

// mockAnswerPipeline is a mock implementation of driving.AnswerPipeline.
type mockAnswerPipeline struct {
	result  *domain.AnswerResult
	entries []domain.ScoredEntry
	err     error
	lastReq domain.AnswerRequest
}

func (m *mockAnswerPipeline) Answer(_ context.Context, req domain.AnswerRequest) (*domain.AnswerResult, error) {
	m.lastReq = req
	return m.result, m.err
}

func (m *mockAnswerPipeline) Retrieve(_ context.Context, _ string, _ int) ([]domain.ScoredEntry, error) {
	return m.entries, m.err
}
