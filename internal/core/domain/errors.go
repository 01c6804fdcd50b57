package domain

import "errors"

// Domain errors represent pipeline failures the transport layer maps to
// user-visible responses. They are distinguished with errors.Is; adapters
// wrap them with context using fmt.Errorf and %w.
var (
	// ErrInvalidInput indicates a malformed request: bad parameters,
	// missing fields, or degenerate chunking settings. Surfaced directly
	// to the caller and never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDimensionMismatch indicates a vector does not match the
	// collection's configured dimension. A schema error, not a transient
	// failure: retrying the same vector cannot succeed.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrBackendUnavailable indicates the embedding, index, or generation
	// backend was unreachable or timed out. Recoverable: idempotent
	// operations (embedding, index query) may be retried with backoff;
	// the generation call is never retried automatically.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrMalformedResponse indicates a backend replied but the payload
	// shape was wrong. A contract violation rather than an outage, so it
	// is logged and surfaced distinctly from ErrBackendUnavailable.
	ErrMalformedResponse = errors.New("malformed backend response")
)
