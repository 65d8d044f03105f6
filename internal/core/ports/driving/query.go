package driving

import (
	"context"

	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
)

// RetrievalService finds the passages most relevant to a query.
type RetrievalService interface {
	// Retrieve embeds query once and searches index for the k best passages.
	// k == 0 uses the configured top_k.
	Retrieve(ctx context.Context, index driven.VectorIndex, query string, k int) ([]domain.ScoredChunk, error)
}

// AnswerService answers a question grounded in an index.
// Each call is independent; nothing is retained between calls.
type AnswerService interface {
	// Answer retrieves context, assembles the prompt and generates an answer.
	Answer(ctx context.Context, index driven.VectorIndex, query string, opts domain.AnswerOptions) (*domain.Answer, error)
}
