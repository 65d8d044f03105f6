package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codetutor/internal/adapters/driven/vector/brute"
	"github.com/custodia-labs/codetutor/internal/adapters/driving/handle"
	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
)

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	index driven.VectorIndex
	err   error
}

func (m *mockIndexService) BuildIndex(context.Context, domain.IngestRequest) (driven.VectorIndex, *domain.IngestResult, error) {
	return nil, nil, m.err
}

func (m *mockIndexService) Persist(context.Context, driven.VectorIndex, string) error {
	return m.err
}

func (m *mockIndexService) Load(context.Context, string) (driven.VectorIndex, error) {
	return m.index, m.err
}

func (m *mockIndexService) Location(location string) string {
	if location == "" {
		return "/tmp/vector_store"
	}
	return location
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.ScoredChunk
	err     error
	query   string
	k       int
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context, _ driven.VectorIndex, query string, k int,
) ([]domain.ScoredChunk, error) {
	m.query, m.k = query, k
	return m.results, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer *domain.Answer
	err    error
	opts   domain.AnswerOptions
}

func (m *mockAnswerService) Answer(
	_ context.Context, _ driven.VectorIndex, _ string, opts domain.AnswerOptions,
) (*domain.Answer, error) {
	m.opts = opts
	return m.answer, m.err
}

func testHolder(t *testing.T, err error) *handle.Holder {
	t.Helper()
	ix, buildErr := brute.Build(domain.IndexManifest{
		Model:       "nomic-embed-text",
		DocumentURI: "/docs/python.pdf",
		ChunkSize:   300,
		Overlap:     50,
	}, []domain.IndexEntry{{ID: 0, Vector: []float32{1, 0}, Chunk: domain.Chunk{Content: "x"}}})
	require.NoError(t, buildErr)
	return handle.New(&mockIndexService{index: ix, err: err}, "")
}

var testResults = []domain.ScoredChunk{
	{
		EntryID: 3,
		Score:   0.91,
		Chunk: domain.Chunk{
			Position: 3,
			Content:  "Tuples are immutable.",
			Metadata: map[string]any{"source": "/docs/python.pdf"},
		},
	},
}
