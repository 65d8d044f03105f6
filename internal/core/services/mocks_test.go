package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
)

// --- Mock implementations ---

// keywordVector embeds text by counting a few keywords.
// The trailing 1 keeps every vector non-zero.
func keywordVector(text string) []float32 {
	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "list")),
		float32(strings.Count(lower, "tuple")),
		float32(strings.Count(lower, "dict")),
		1,
	}
}

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	mu      sync.Mutex
	calls   int
	batches int

	embedFn func(text string) []float32
	dims    int
	err     error
	delay   time.Duration
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{embedFn: keywordVector, dims: 4}
}

func (m *mockEmbedder) wait(ctx context.Context) error {
	if m.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.delay):
		return nil
	}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.embedFn(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches++
	m.mu.Unlock()
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.embedFn(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dims }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

func (m *mockEmbedder) embedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	mu     sync.Mutex
	prompt string
	opts   driven.GenerateOptions
	calls  int

	response string
	err      error
	delay    time.Duration
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.calls++
	m.prompt = prompt
	m.opts = opts
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.delay):
		}
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrConfigNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockRetriever implements driving.RetrievalService for testing.
type mockRetriever struct {
	results []domain.ScoredChunk
	err     error
	k       int
}

func (m *mockRetriever) Retrieve(_ context.Context, _ driven.VectorIndex, _ string, k int) ([]domain.ScoredChunk, error) {
	m.k = k
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// mockAIValidator implements driven.AIConfigValidator for testing.
type mockAIValidator struct {
	embeddingErr error
	llmErr       error
	lastModel    string
}

func (m *mockAIValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	m.lastModel = cfg.Model
	return m.embeddingErr
}

func (m *mockAIValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	m.lastModel = cfg.Model
	return m.llmErr
}
