// Package ratelimit wraps an embedding service with a token-bucket limiter.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService limits calls to the wrapped service. A batch consumes one
// token per text.
type EmbeddingService struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// Wrap returns next limited to rps requests per second. A non-positive rps
// returns next unchanged.
func Wrap(next driven.EmbeddingService, rps float64) driven.EmbeddingService {
	if rps <= 0 {
		return next
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &EmbeddingService{
		EmbeddingService: next,
		limiter:          rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Embed waits for a token, then embeds text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, waitError(ctx, err)
	}
	return s.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch waits for one token per text, then embeds the batch.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	n := len(texts)
	for n > 0 {
		take := min(n, s.limiter.Burst())
		if err := s.limiter.WaitN(ctx, take); err != nil {
			return nil, waitError(ctx, err)
		}
		n -= take
	}
	return s.EmbeddingService.EmbedBatch(ctx, texts)
}

// waitError reports a wait that cannot finish before the context deadline as
// context.DeadlineExceeded. The limiter returns early without waiting for it.
func waitError(ctx context.Context, err error) error {
	if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
		return fmt.Errorf("rate limit: %w: %w", context.DeadlineExceeded, err)
	}
	return fmt.Errorf("rate limit: %w", err)
}
