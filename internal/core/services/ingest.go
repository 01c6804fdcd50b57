package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ragpipe/ragpipe/internal/chunker"
	"github.com/ragpipe/ragpipe/internal/core/domain"
	"github.com/ragpipe/ragpipe/internal/core/ports/driven"
	"github.com/ragpipe/ragpipe/internal/core/ports/driving"
	"github.com/ragpipe/ragpipe/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestPipeline = (*IngestService)(nil)

// DefaultIngestWorkers bounds concurrent embedding calls during ingestion.
const DefaultIngestWorkers = 4

// IngestService turns documents into indexed chunks. Embedding runs on
// a bounded worker pool; upserts happen afterwards in chunk order so a
// partially failed ingest leaves a deterministic index state.
type IngestService struct {
	splitter *chunker.Splitter
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	workers  int
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithWorkers sets the embedding concurrency. Values below 1 fall back
// to DefaultIngestWorkers.
func WithWorkers(n int) IngestOption {
	return func(s *IngestService) {
		if n >= 1 {
			s.workers = n
		}
	}
}

// NewIngestService creates an ingestion pipeline.
func NewIngestService(
	splitter *chunker.Splitter,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		splitter: splitter,
		embedder: embedder,
		index:    index,
		workers:  DefaultIngestWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest chunks, embeds and indexes a document. Per-chunk failures are
// recorded in the summary rather than aborting the whole document;
// re-ingesting the same document replaces its chunks in place because
// chunk IDs derive from the source ID and ordinal.
func (s *IngestService) Ingest(ctx context.Context, doc domain.Document) (*domain.IngestSummary, error) {
	sourceID := strings.TrimSpace(doc.SourceID)
	if sourceID == "" {
		return nil, fmt.Errorf("%w: document source id is empty", domain.ErrInvalidInput)
	}

	logger.Section("Ingest")
	logger.Debug("Source: %q (%d bytes)", sourceID, len(doc.Text))

	pieces := s.splitter.Split(doc.Text)
	summary := &domain.IngestSummary{
		SourceID:  sourceID,
		Attempted: len(pieces),
	}
	if len(pieces) == 0 {
		logger.Debug("Document produced no chunks, nothing to index")
		return summary, nil
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, text := range pieces {
		chunks[i] = domain.Chunk{
			ID:       domain.ChunkID(sourceID, i),
			SourceID: sourceID,
			Ordinal:  i,
			Text:     text,
		}
	}

	vectors := make([][]float32, len(chunks))
	embedErrs := make([]error, len(chunks))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workers)
	for i := range chunks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			vectors[i], embedErrs[i] = s.embedder.Embed(ctx, chunks[i].Text)
		}(i)
	}
	wg.Wait()

	// Upsert in ordinal order so repeated runs converge on the same state.
	for i, chunk := range chunks {
		outcome := domain.ChunkOutcome{ID: chunk.ID, Ordinal: chunk.Ordinal}

		switch {
		case embedErrs[i] != nil:
			outcome.Error = fmt.Sprintf("embedding: %v", embedErrs[i])
		default:
			entry := domain.IndexEntry{
				ID:     chunk.ID,
				Vector: vectors[i],
				Payload: domain.Payload{
					Text:    chunk.Text,
					Source:  chunk.SourceID,
					Title:   doc.Title,
					Ordinal: chunk.Ordinal,
				},
			}
			if err := s.index.Upsert(ctx, entry); err != nil {
				outcome.Error = fmt.Sprintf("indexing: %v", err)
			}
		}

		if outcome.Error == "" {
			summary.Succeeded++
		} else {
			summary.Failed++
			logger.Warn("Chunk %d of %q failed: %s", chunk.Ordinal, sourceID, outcome.Error)
		}
		summary.Chunks = append(summary.Chunks, outcome)
	}

	logger.Info("Ingested %q: %d/%d chunks indexed", sourceID, summary.Succeeded, summary.Attempted)
	return summary, nil
}
