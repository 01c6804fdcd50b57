// Package qdrant provides a vector index backed by a Qdrant server,
// spoken to over its REST API. Collections use cosine distance and are
// created on first use.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ragpipe/ragpipe/internal/core/domain"
	"github.com/ragpipe/ragpipe/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*Index)(nil)

const (
	// DefaultBaseURL is the default Qdrant endpoint.
	DefaultBaseURL = "http://localhost:6333"
	// DefaultCollection is the collection used when none is configured.
	DefaultCollection = "ragpipe"
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 15 * time.Second

	maxAttempts    = 3
	initialBackoff = 200 * time.Millisecond
)

// Config holds Qdrant connection settings.
type Config struct {
	// BaseURL is the Qdrant server URL (default http://localhost:6333).
	BaseURL string
	// APIKey is sent as the api-key header when non-empty.
	APIKey string
	// Collection is the collection name (default "ragpipe").
	Collection string
	// Dimensions is the vector size (default domain.DefaultVectorDimensions).
	Dimensions int
	// Timeout is the per-request timeout (default 15s).
	Timeout time.Duration
}

// Index talks to a Qdrant collection. Safe for concurrent use; the
// mutex guards the dimension, which Reset rewrites while other
// operations read it.
type Index struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client

	mu         sync.RWMutex
	dimensions int
}

// New creates a Qdrant index and ensures its collection exists. Creating
// an already-existing collection with the same schema is accepted by
// Qdrant, so New is safe to call on every startup.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = domain.DefaultVectorDimensions
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	x := &Index{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: cfg.Timeout},
	}

	if err := x.ensureCollection(ctx, cfg.Dimensions); err != nil {
		return nil, err
	}
	return x, nil
}

// Upsert inserts or fully replaces the point for entry.ID.
func (x *Index) Upsert(ctx context.Context, entry domain.IndexEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("%w: entry id is empty", domain.ErrInvalidInput)
	}
	if dims := x.Dimensions(); len(entry.Vector) != dims {
		return fmt.Errorf("%w: got %d, index expects %d",
			domain.ErrDimensionMismatch, len(entry.Vector), dims)
	}

	pointID, err := pointID(entry.ID)
	if err != nil {
		return err
	}

	body := map[string]any{
		"points": []map[string]any{{
			"id":     pointID,
			"vector": entry.Vector,
			"payload": map[string]any{
				"chunk_id": entry.ID,
				"text":     entry.Payload.Text,
				"source":   entry.Payload.Source,
				"title":    entry.Payload.Title,
				"ordinal":  entry.Payload.Ordinal,
			},
		}},
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", x.collection)
	return x.do(ctx, http.MethodPut, path, body, nil)
}

// Query returns up to topK points ranked by cosine similarity. Results
// are re-sorted client side so that equal scores order by chunk ID.
func (x *Index) Query(ctx context.Context, vector []float32, topK int) ([]domain.ScoredEntry, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", domain.ErrInvalidInput, topK)
	}
	if dims := x.Dimensions(); len(vector) != dims {
		return nil, fmt.Errorf("%w: got %d, index expects %d",
			domain.ErrDimensionMismatch, len(vector), dims)
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"with_vector":  false,
	}

	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				ChunkID string `json:"chunk_id"`
				Text    string `json:"text"`
				Source  string `json:"source"`
				Title   string `json:"title"`
				Ordinal int    `json:"ordinal"`
			} `json:"payload"`
		} `json:"result"`
	}

	path := fmt.Sprintf("/collections/%s/points/search", x.collection)
	if err := x.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}

	scored := make([]domain.ScoredEntry, 0, len(resp.Result))
	for _, r := range resp.Result {
		if r.Payload.ChunkID == "" {
			return nil, fmt.Errorf("%w: search result missing chunk_id payload", domain.ErrMalformedResponse)
		}
		scored = append(scored, domain.ScoredEntry{
			Entry: domain.IndexEntry{
				ID: r.Payload.ChunkID,
				Payload: domain.Payload{
					Text:    r.Payload.Text,
					Source:  r.Payload.Source,
					Title:   r.Payload.Title,
					Ordinal: r.Payload.Ordinal,
				},
			},
			Score: r.Score,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Entry.ID < scored[j].Entry.ID
	})

	return scored, nil
}

// Delete removes the point for id. Deleting a missing id is a no-op.
func (x *Index) Delete(ctx context.Context, id string) error {
	pointID, err := pointID(id)
	if err != nil {
		return err
	}

	body := map[string]any{"points": []string{pointID}}
	path := fmt.Sprintf("/collections/%s/points/delete?wait=true", x.collection)
	return x.do(ctx, http.MethodPost, path, body, nil)
}

// Reset drops the collection and re-creates it with the given dimension.
func (x *Index) Reset(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", domain.ErrInvalidInput, dimensions)
	}

	path := fmt.Sprintf("/collections/%s", x.collection)
	if err := x.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	if err := x.ensureCollection(ctx, dimensions); err != nil {
		return err
	}

	x.mu.Lock()
	x.dimensions = dimensions
	x.mu.Unlock()
	return nil
}

// Dimensions returns the collection's configured vector size.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dimensions
}

// Close releases resources.
func (x *Index) Close() error {
	x.client.CloseIdleConnections()
	return nil
}

func (x *Index) ensureCollection(ctx context.Context, dimensions int) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	path := fmt.Sprintf("/collections/%s", x.collection)
	return x.do(ctx, http.MethodPut, path, body, nil)
}

// do issues a request with bounded retries on transport errors, 429 and
// 5xx responses. All index operations are idempotent, so retrying is
// safe here.
func (x *Index) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
	}

	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, x.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if x.apiKey != "" {
			req.Header.Set("api-key", x.apiKey)
		}

		resp, err := x.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if out == nil {
				resp.Body.Close()
				return nil
			}
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("%w: decoding response: %v", domain.ErrMalformedResponse, err)
			}
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: qdrant returned %s", domain.ErrBackendUnavailable, resp.Status)
			continue
		default:
			resp.Body.Close()
			return fmt.Errorf("%w: qdrant returned %s for %s %s",
				domain.ErrBackendUnavailable, resp.Status, method, path)
		}
	}

	return lastErr
}

// pointID converts a chunk ID to a Qdrant point ID. Qdrant only accepts
// UUIDs or unsigned integers as point IDs; chunk IDs are 32 hex
// characters, which parse as a dashless UUID.
func pointID(chunkID string) (string, error) {
	id, err := uuid.Parse(chunkID)
	if err != nil {
		return "", fmt.Errorf("%w: chunk id %q is not convertible to a point id: %v",
			domain.ErrInvalidInput, chunkID, err)
	}
	return id.String(), nil
}
