// Package httpapi exposes the ingestion and answer pipelines over a
// small JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ragpipe/ragpipe/internal/core/domain"
	"github.com/ragpipe/ragpipe/internal/core/ports/driving"
	"github.com/ragpipe/ragpipe/internal/logger"
)

// Server routes HTTP requests to the pipelines.
type Server struct {
	ingest driving.IngestPipeline
	answer driving.AnswerPipeline
}

// NewServer creates an HTTP server over the given pipelines.
func NewServer(ingest driving.IngestPipeline, answer driving.AnswerPipeline) *Server {
	return &Server{
		ingest: ingest,
		answer: answer,
	}
}

// Handler returns the routed handler, wrapped with request ID and
// logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ingest", s.handleIngest)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /health", s.handleHealth)
	return requestID(mux)
}

// Run serves the API on addr until the context is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

type ingestRequest struct {
	SourceID string            `json:"source_id"`
	Title    string            `json:"title,omitempty"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type chunkOutcomeResponse struct {
	ID      string `json:"id"`
	Ordinal int    `json:"ordinal"`
	Error   string `json:"error,omitempty"`
}

type ingestResponse struct {
	SourceID  string                 `json:"source_id"`
	Attempted int                    `json:"attempted"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Chunks    []chunkOutcomeResponse `json:"chunks"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	summary, err := s.ingest.Ingest(r.Context(), domain.Document{
		SourceID: req.SourceID,
		Title:    req.Title,
		Text:     req.Text,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := ingestResponse{
		SourceID:  summary.SourceID,
		Attempted: summary.Attempted,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Chunks:    make([]chunkOutcomeResponse, len(summary.Chunks)),
	}
	for i, c := range summary.Chunks {
		resp.Chunks[i] = chunkOutcomeResponse{ID: c.ID, Ordinal: c.Ordinal, Error: c.Error}
	}

	writeJSON(w, http.StatusOK, resp)
}

type queryRequest struct {
	Query       string  `json:"query"`
	TopK        int     `json:"top_k,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type queryResponse struct {
	Answer  string                 `json:"answer"`
	Sources []domain.SourcePassage `json:"sources"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.answer.Answer(r.Context(), domain.AnswerRequest{
		Query:       req.Query,
		TopK:        req.TopK,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sources := result.Sources
	if sources == nil {
		sources = []domain.SourcePassage{}
	}
	writeJSON(w, http.StatusOK, queryResponse{Answer: result.Answer, Sources: sources})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps pipeline errors onto HTTP status codes. Backend
// outages and malformed backend responses map to distinct gateway
// statuses so callers can tell retryable failures apart.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrMalformedResponse):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrBackendUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("Unhandled pipeline error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// requestID tags every request with an X-Request-ID header, generating
// one when the client did not send it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		logger.Debug("%s %s (request_id=%s)", r.Method, r.URL.Path, id)
		next.ServeHTTP(w, r)
	})
}
