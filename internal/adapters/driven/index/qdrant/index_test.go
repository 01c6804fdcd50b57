package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragpipe/ragpipe/internal/core/domain"
)

const (
	chunkA = "0a4b5b6bb7197a2d2b470676aa6b6ba8"
	chunkB = "1c2d3e4f5a6b7c8d9e0f1a2b3c4d5e6f"
)

func newTestIndex(t *testing.T, handler http.Handler) (*Index, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	idx, err := New(context.Background(), Config{
		BaseURL:    srv.URL,
		Collection: "test",
		Dimensions: 3,
	})
	require.NoError(t, err)
	return idx, srv
}

func okHandler(mux *http.ServeMux) {
	mux.HandleFunc("PUT /collections/test", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})
}

func TestNewEnsuresCollection(t *testing.T) {
	var created atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /collections/test", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 3, body.Vectors.Size)
		assert.Equal(t, "Cosine", body.Vectors.Distance)
		created.Store(true)
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})

	newTestIndex(t, mux)
	assert.True(t, created.Load())
}

func TestUpsertSendsPoint(t *testing.T) {
	mux := http.NewServeMux()
	okHandler(mux)
	mux.HandleFunc("PUT /collections/test/points", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("wait"))

		var body struct {
			Points []struct {
				ID      string         `json:"id"`
				Vector  []float32      `json:"vector"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Points, 1)

		// Point id is the chunk id rendered as a dashed UUID.
		assert.Equal(t, "0a4b5b6b-b719-7a2d-2b47-0676aa6b6ba8", body.Points[0].ID)
		assert.Equal(t, chunkA, body.Points[0].Payload["chunk_id"])
		assert.Equal(t, "hello", body.Points[0].Payload["text"])
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})

	idx, _ := newTestIndex(t, mux)
	err := idx.Upsert(context.Background(), domain.IndexEntry{
		ID:      chunkA,
		Vector:  []float32{1, 0, 0},
		Payload: domain.Payload{Text: "hello", Source: "doc-1"},
	})
	assert.NoError(t, err)
}

func TestUpsertDimensionMismatch(t *testing.T) {
	mux := http.NewServeMux()
	okHandler(mux)

	idx, _ := newTestIndex(t, mux)
	err := idx.Upsert(context.Background(), domain.IndexEntry{
		ID:     chunkA,
		Vector: []float32{1, 0},
	})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestUpsertRejectsBadChunkID(t *testing.T) {
	mux := http.NewServeMux()
	okHandler(mux)

	idx, _ := newTestIndex(t, mux)
	err := idx.Upsert(context.Background(), domain.IndexEntry{
		ID:     "not-hex",
		Vector: []float32{1, 0, 0},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueryParsesAndReorders(t *testing.T) {
	mux := http.NewServeMux()
	okHandler(mux)
	mux.HandleFunc("POST /collections/test/points/search", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Limit       int  `json:"limit"`
			WithPayload bool `json:"with_payload"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 2, body.Limit)
		assert.True(t, body.WithPayload)

		// Equal scores returned in reverse lexical order; the client
		// must reorder them by chunk id.
		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{"score": 0.9, "payload": map[string]any{"chunk_id": chunkB, "text": "b", "source": "doc-1", "ordinal": 1}},
				{"score": 0.9, "payload": map[string]any{"chunk_id": chunkA, "text": "a", "source": "doc-1", "ordinal": 0}},
			},
		})
	})

	idx, _ := newTestIndex(t, mux)
	results, err := idx.Query(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, chunkA, results[0].Entry.ID)
	assert.Equal(t, chunkB, results[1].Entry.ID)
	assert.Equal(t, "a", results[0].Entry.Payload.Text)
}

func TestQueryMissingChunkID(t *testing.T) {
	mux := http.NewServeMux()
	okHandler(mux)
	mux.HandleFunc("POST /collections/test/points/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{"score": 0.9, "payload": map[string]any{"text": "orphan"}},
			},
		})
	})

	idx, _ := newTestIndex(t, mux)
	_, err := idx.Query(context.Background(), []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestQueryRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	okHandler(mux)
	mux.HandleFunc("POST /collections/test/points/search", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"result": []map[string]any{}})
	})

	idx, _ := newTestIndex(t, mux)
	results, err := idx.Query(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, int32(3), calls.Load())
}

func TestQueryExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	okHandler(mux)
	mux.HandleFunc("POST /collections/test/points/search", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	})

	idx, _ := newTestIndex(t, mux)
	_, err := idx.Query(context.Background(), []float32{1, 0, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.Equal(t, int32(maxAttempts), calls.Load())
}

func TestDeleteSendsPointID(t *testing.T) {
	mux := http.NewServeMux()
	okHandler(mux)
	mux.HandleFunc("POST /collections/test/points/delete", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Points []string `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Points, 1)
		assert.True(t, strings.Contains(body.Points[0], "-"))
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})

	idx, _ := newTestIndex(t, mux)
	assert.NoError(t, idx.Delete(context.Background(), chunkA))
}

func TestResetDropsAndRecreates(t *testing.T) {
	var dropped atomic.Bool
	var creates atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /collections/test", func(w http.ResponseWriter, r *http.Request) {
		creates.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})
	mux.HandleFunc("DELETE /collections/test", func(w http.ResponseWriter, r *http.Request) {
		dropped.Store(true)
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})

	idx, _ := newTestIndex(t, mux)
	require.NoError(t, idx.Reset(context.Background(), 5))

	assert.True(t, dropped.Load())
	assert.Equal(t, int32(2), creates.Load())
	assert.Equal(t, 5, idx.Dimensions())
}

func TestResetConcurrentWithQueries(t *testing.T) {
	mux := http.NewServeMux()
	okHandler(mux)
	mux.HandleFunc("DELETE /collections/test", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})
	mux.HandleFunc("POST /collections/test/points/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"result": []any{}})
	})

	idx, _ := newTestIndex(t, mux)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			assert.NoError(t, idx.Reset(ctx, 3))
		}
	}()

	for i := 0; i < 20; i++ {
		_, err := idx.Query(ctx, []float32{1, 0, 0}, 1)
		require.NoError(t, err)
		require.Equal(t, 3, idx.Dimensions())
	}
	<-done
}

func TestAPIKeyHeader(t *testing.T) {
	var gotKey atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /collections/test", func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.Header.Get("api-key"))
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := New(context.Background(), Config{
		BaseURL:    srv.URL,
		Collection: "test",
		Dimensions: 3,
		APIKey:     "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey.Load())
}
