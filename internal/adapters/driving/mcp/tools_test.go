package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragpipe/ragpipe/internal/core/domain"
)

func newTestServer(t *testing.T, ingest *mockIngestPipeline, answer *mockAnswerPipeline) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Ingest: ingest, Answer: answer})
	require.NoError(t, err)
	return server
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ingest summary", func(t *testing.T) {
		ingest := &mockIngestPipeline{
			summary: &domain.IngestSummary{
				SourceID:  "doc-1",
				Attempted: 3,
				Succeeded: 2,
				Failed:    1,
			},
		}
		server := newTestServer(t, ingest, &mockAnswerPipeline{})

		input := IngestInput{SourceID: "doc-1", Title: "Doc", Text: "body"}
		_, output, err := server.handleIngest(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "doc-1", output.SourceID)
		assert.Equal(t, 3, output.Attempted)
		assert.Equal(t, 2, output.Succeeded)
		assert.Equal(t, 1, output.Failed)
		assert.Equal(t, "doc-1", ingest.lastDoc.SourceID)
		assert.Equal(t, "Doc", ingest.lastDoc.Title)
	})

	t.Run("propagates pipeline error", func(t *testing.T) {
		ingest := &mockIngestPipeline{err: domain.ErrInvalidInput}
		server := newTestServer(t, ingest, &mockAnswerPipeline{})

		_, _, err := server.handleIngest(ctx, nil, IngestInput{Text: "no source"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		answer := &mockAnswerPipeline{
			result: &domain.AnswerResult{
				Answer: "a language",
				Sources: []domain.SourcePassage{
					{Text: "Go is a language", Source: "doc-1", Score: 0.9},
					{Text: "Go compiles fast", Source: "doc-2", Score: 0.7},
				},
			},
		}
		server := newTestServer(t, &mockIngestPipeline{}, answer)

		_, output, err := server.handleQuery(ctx, nil, QueryInput{Query: "what is go?", TopK: 3})

		require.NoError(t, err)
		assert.Equal(t, "a language", output.Answer)
		require.Len(t, output.Sources, 2)
		assert.Equal(t, "doc-1", output.Sources[0].Source)
		assert.Equal(t, 0.9, output.Sources[0].Score)
		assert.Equal(t, 3, answer.lastReq.TopK)
	})

	t.Run("nil sources become empty slice", func(t *testing.T) {
		answer := &mockAnswerPipeline{
			result: &domain.AnswerResult{Answer: "nothing indexed"},
		}
		server := newTestServer(t, &mockIngestPipeline{}, answer)

		_, output, err := server.handleQuery(ctx, nil, QueryInput{Query: "q"})

		require.NoError(t, err)
		assert.NotNil(t, output.Sources)
		assert.Empty(t, output.Sources)
	})

	t.Run("propagates backend outage", func(t *testing.T) {
		answer := &mockAnswerPipeline{err: domain.ErrBackendUnavailable}
		server := newTestServer(t, &mockIngestPipeline{}, answer)

		_, _, err := server.handleQuery(ctx, nil, QueryInput{Query: "q"})
		assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	})
}

func TestNewServer_validatesPorts(t *testing.T) {
	_, err := NewServer(&Ports{Answer: &mockAnswerPipeline{}})
	assert.ErrorIs(t, err, ErrMissingIngestPipeline)

	_, err = NewServer(&Ports{Ingest: &mockIngestPipeline{}})
	assert.ErrorIs(t, err, ErrMissingAnswerPipeline)
}
