// Package mcp provides an MCP (Model Context Protocol) server adapter
// for the pipeline. It lets AI assistants ingest documents and ask
// questions over the indexed corpus.
package mcp

import "errors"

// ErrMissingIngestPipeline is returned when the ingest pipeline is not provided.
var ErrMissingIngestPipeline = errors.New("mcp: ingest pipeline is required")

// ErrMissingAnswerPipeline is returned when the answer pipeline is not provided.
var ErrMissingAnswerPipeline = errors.New("mcp: answer pipeline is required")
