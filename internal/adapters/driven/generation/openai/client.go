// Package openai provides a generation service adapter for
// OpenAI-compatible completion servers (llama.cpp, vLLM, LM Studio and
// similar all expose the same /v1/completions contract).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ragpipe/ragpipe/internal/core/domain"
	"github.com/ragpipe/ragpipe/internal/core/ports/driven"
)

// Ensure GenerationService implements the interface.
var _ driven.GenerationService = (*GenerationService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the generation service.
type Config struct {
	// BaseURL is the completion server base URL (default: http://localhost:8080).
	BaseURL string

	// Model is the model name sent with each request; optional for
	// single-model servers.
	Model string

	// Timeout is the per-request timeout (default: 120s). A generation
	// call that exceeds it is treated as a recoverable backend failure.
	Timeout time.Duration
}

// GenerationService calls an OpenAI-compatible completion endpoint.
// It performs exactly one backend call per Complete invocation: a
// generation is not idempotent, so it is never retried here.
type GenerationService struct {
	client  *http.Client
	baseURL string
	model   string
}

type completionRequest struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// NewGenerationService creates a new generation service.
func NewGenerationService(cfg Config) *GenerationService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &GenerationService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Complete performs a single completion call. Transport failure or a
// non-2xx status maps to domain.ErrBackendUnavailable; a 2xx response
// without the expected choices field maps to domain.ErrMalformedResponse,
// since that indicates a protocol mismatch rather than an outage.
func (s *GenerationService) Complete(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	jsonBody, err := json.Marshal(completionRequest{
		Model:       s.model,
		Prompt:      prompt,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/v1/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: completion status %d: %s",
			domain.ErrBackendUnavailable, resp.StatusCode, string(body))
	}

	var genResp completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("%w: decode completion: %v", domain.ErrMalformedResponse, err)
	}
	if len(genResp.Choices) == 0 {
		return "", fmt.Errorf("%w: response missing choices", domain.ErrMalformedResponse)
	}

	return genResp.Choices[0].Text, nil
}

// ModelName returns the configured model name.
func (s *GenerationService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *GenerationService) Close() error {
	return nil
}
