package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ragpipe/ragpipe/internal/core/ports/driven"
)

// answerLabel separates the completion's preamble from the answer text.
const answerLabel = "Answer:"

// Gateway wraps a generation backend with the prompt construction and
// response extraction the pipeline uses. Generation is never retried;
// a failed call surfaces immediately.
type Gateway struct {
	generator driven.GenerationService
}

// NewGateway creates a gateway over the given generation backend.
func NewGateway(generator driven.GenerationService) *Gateway {
	return &Gateway{generator: generator}
}

// Answer builds the prompt from the query and retrieved passages, makes
// exactly one generation call, and extracts the answer text.
func (g *Gateway) Answer(
	ctx context.Context, query string, passages []string, opts driven.GenerateOptions,
) (string, error) {
	prompt := BuildPrompt(query, passages)

	completion, err := g.generator.Complete(ctx, prompt, opts)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	return ExtractAnswer(completion), nil
}

// ModelName returns the backend's model identifier.
func (g *Gateway) ModelName() string {
	return g.generator.ModelName()
}

// BuildPrompt renders the question-answering prompt. Passages appear in
// retrieval order, joined by blank lines.
func BuildPrompt(query string, passages []string) string {
	var b strings.Builder
	b.WriteString("Answer the question based on the following context:\n\n")
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(passages, "\n\n"))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

// ExtractAnswer returns the text after the first "Answer:" label in the
// completion, trimmed. Models that echo the prompt before answering
// produce such a label; completions without one are returned unchanged.
func ExtractAnswer(completion string) string {
	if i := strings.Index(completion, answerLabel); i >= 0 {
		return strings.TrimSpace(completion[i+len(answerLabel):])
	}
	return completion
}
