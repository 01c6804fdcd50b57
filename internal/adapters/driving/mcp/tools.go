package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ragpipe/ragpipe/internal/core/domain"
)

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	SourceID string `json:"source_id" jsonschema:"stable identifier for the document"`
	Title    string `json:"title,omitempty" jsonschema:"optional human-readable title"`
	Text     string `json:"text" jsonschema:"the document text to index"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	SourceID  string `json:"source_id"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Query string `json:"query" jsonschema:"the question to answer from indexed documents"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of passages to retrieve (default 5)"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Answer  string                 `json:"answer"`
	Sources []domain.SourcePassage `json:"sources"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Chunk, embed and index a document for retrieval",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Answer a question using the indexed documents",
	}, s.handleQuery)
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	summary, err := s.ports.Ingest.Ingest(ctx, domain.Document{
		SourceID: input.SourceID,
		Title:    input.Title,
		Text:     input.Text,
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		SourceID:  summary.SourceID,
		Attempted: summary.Attempted,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
	}, nil
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	result, err := s.ports.Answer.Answer(ctx, domain.AnswerRequest{
		Query: input.Query,
		TopK:  input.TopK,
	})
	if err != nil {
		return nil, QueryOutput{}, err
	}

	sources := result.Sources
	if sources == nil {
		sources = []domain.SourcePassage{}
	}

	return nil, QueryOutput{
		Answer:  result.Answer,
		Sources: sources,
	}, nil
}
