package driven

import "context"

// GenerationService is the text-generation backend: it completes a
// prompt and returns the generated text. Prompt assembly and answer
// extraction live in the gateway, not here.
//
// Error contract: transport failure, timeout, or a non-2xx status maps
// to domain.ErrBackendUnavailable; a 2xx response missing the expected
// answer field maps to domain.ErrMalformedResponse. Implementations must
// not retry: a generation call is not idempotent and a duplicate run is
// costly.
type GenerationService interface {
	// Complete performs a single generation call for the prompt.
	Complete(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName identifies the generation model in use.
	ModelName() string

	// Close releases resources.
	Close() error
}

// GenerateOptions configures a generation call.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls sampling randomness (0.0 = deterministic).
	Temperature float64
}
