package mcp

import (
	"github.com/ragpipe/ragpipe/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP
// server. This provides a single injection point for dependency
// injection.
type Ports struct {
	// Ingest adds documents to the index.
	Ingest driving.IngestPipeline

	// Answer answers questions against the index.
	Answer driving.AnswerPipeline
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingest == nil {
		return ErrMissingIngestPipeline
	}
	if p.Answer == nil {
		return ErrMissingAnswerPipeline
	}
	return nil
}
