package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
	"github.com/custodia-labs/codetutor/internal/core/ports/driving"
	"github.com/custodia-labs/codetutor/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService embeds queries and searches an index handle.
// It holds no per-request state and is safe for concurrent use.
type RetrievalService struct {
	embedder driven.EmbeddingService
	settings domain.AppSettings
}

// NewRetrievalService creates a retrieval service.
// settings supplies the default top_k and the embedding timeout.
func NewRetrievalService(embedder driven.EmbeddingService, settings *domain.AppSettings) *RetrievalService {
	s := &RetrievalService{embedder: embedder, settings: domain.DefaultAppSettings()}
	if settings != nil {
		s.settings = *settings
	}
	return s
}

// Retrieve embeds query once and returns the k most similar passages, best first.
func (s *RetrievalService) Retrieve(
	ctx context.Context, index driven.VectorIndex, query string, k int,
) ([]domain.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidArgument)
	}
	if index == nil {
		return nil, fmt.Errorf("%w: no index loaded", domain.ErrIndexNotFound)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if k == 0 {
		k = s.settings.Retrieval.TopK
	}

	logger.Debug("retrieve: k=%d, index entries=%d", k, index.Len())

	vector, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	done := logger.Timed("search")
	results, err := index.Search(ctx, vector, k)
	done()
	if err != nil {
		return nil, err
	}
	for i, r := range results {
		logger.Debug("  %d. entry %d score=%.4f", i+1, r.EntryID, r.Score)
	}
	return results, nil
}

func (s *RetrievalService) embed(ctx context.Context, query string) ([]float32, error) {
	defer logger.Timed("embed query")()

	callCtx, cancel := withTimeout(ctx, s.settings.Embedding.Timeout)
	defer cancel()

	vector, err := s.embedder.Embed(callCtx, query)
	if err != nil {
		return nil, upstreamError(callCtx, domain.ErrEmbeddingFailed, "embed query", err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", domain.ErrEmbeddingFailed)
	}
	return vector, nil
}
