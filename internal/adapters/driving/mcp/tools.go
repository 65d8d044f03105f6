package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/codetutor/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed material"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of passages to ground the answer on (default from settings)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string          `json:"answer"`
	Model   string          `json:"model"`
	Context []PassageOutput `json:"context"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the text to find similar passages for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default from settings)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput represents a single retrieved passage.
type PassageOutput struct {
	EntryID  int     `json:"entry_id"`
	Position int     `json:"position"`
	Score    float64 `json:"score"`
	Source   string  `json:"source,omitempty"`
	Content  string  `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the passages of the indexed document most similar to a query",
	}, s.handleRetrieve)

	if s.ports.Answer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question using only the indexed document as context",
		}, s.handleAsk)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	index, err := s.ports.Index.Get(ctx)
	if err != nil {
		return nil, RetrieveOutput{}, toolError(err)
	}

	results, err := s.ports.Retrieval.Retrieve(ctx, index, input.Query, input.TopK)
	if err != nil {
		return nil, RetrieveOutput{}, toolError(err)
	}

	return nil, RetrieveOutput{Passages: passages(results), Count: len(results)}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	index, err := s.ports.Index.Get(ctx)
	if err != nil {
		return nil, AskOutput{}, toolError(err)
	}

	answer, err := s.ports.Answer.Answer(ctx, index, input.Question, domain.AnswerOptions{TopK: input.TopK})
	if err != nil {
		return nil, AskOutput{}, toolError(err)
	}

	return nil, AskOutput{
		Answer:  answer.Text,
		Model:   answer.Model,
		Context: passages(answer.Context),
	}, nil
}

func passages(results []domain.ScoredChunk) []PassageOutput {
	out := make([]PassageOutput, len(results))
	for i, r := range results {
		source, _ := r.Chunk.Metadata["source"].(string)
		out[i] = PassageOutput{
			EntryID:  r.EntryID,
			Position: r.Chunk.Position,
			Score:    r.Score,
			Source:   source,
			Content:  r.Chunk.Content,
		}
	}
	return out
}

// toolError prefixes err with its stable kind so clients can branch on it.
func toolError(err error) error {
	return fmt.Errorf("%s: %w", domain.KindOf(err), err)
}
