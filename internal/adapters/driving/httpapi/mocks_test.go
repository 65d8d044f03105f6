package httpapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codetutor/internal/adapters/driven/vector/brute"
	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
)

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	built    driven.VectorIndex
	buildErr error
	loaded   driven.VectorIndex
	loadErr  error
	req      domain.IngestRequest
}

func (m *mockIndexService) BuildIndex(
	_ context.Context, req domain.IngestRequest,
) (driven.VectorIndex, *domain.IngestResult, error) {
	m.req = req
	if m.buildErr != nil {
		return nil, nil, m.buildErr
	}
	return m.built, &domain.IngestResult{Location: req.Location, Chunks: m.built.Len()}, nil
}

func (m *mockIndexService) Persist(context.Context, driven.VectorIndex, string) error { return nil }

func (m *mockIndexService) Load(context.Context, string) (driven.VectorIndex, error) {
	return m.loaded, m.loadErr
}

func (m *mockIndexService) Location(location string) string {
	if location == "" {
		return "/var/codetutor/vector_store"
	}
	return location
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer   *domain.Answer
	err      error
	question string
	opts     domain.AnswerOptions
	index    driven.VectorIndex
}

func (m *mockAnswerService) Answer(
	_ context.Context, index driven.VectorIndex, question string, opts domain.AnswerOptions,
) (*domain.Answer, error) {
	m.index, m.question, m.opts = index, question, opts
	return m.answer, m.err
}

func indexOf(t *testing.T, n int) *brute.Index {
	t.Helper()
	entries := make([]domain.IndexEntry, n)
	for i := range entries {
		entries[i] = domain.IndexEntry{ID: i, Vector: []float32{1, float32(i)}, Chunk: domain.Chunk{Content: "c"}}
	}
	ix, err := brute.Build(domain.IndexManifest{}, entries)
	require.NoError(t, err)
	return ix
}
