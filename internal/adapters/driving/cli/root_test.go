package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codetutor/internal/adapters/driven/vector/brute"
	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
)

type mockIndexService struct {
	req      domain.IngestRequest
	buildErr error
	loadErr  error
	location string
}

func (m *mockIndexService) BuildIndex(
	_ context.Context, req domain.IngestRequest,
) (driven.VectorIndex, *domain.IngestResult, error) {
	m.req = req
	if m.buildErr != nil {
		return nil, nil, m.buildErr
	}
	ix, err := brute.Build(domain.IndexManifest{}, nil)
	if err != nil {
		return nil, nil, err
	}
	return ix, &domain.IngestResult{
		Location:      m.Location(req.Location),
		DocumentTitle: "python notes",
		Chunks:        12,
		Dimension:     768,
		Model:         "nomic-embed-text",
		Duration:      1500 * time.Millisecond,
	}, nil
}

func (m *mockIndexService) Persist(context.Context, driven.VectorIndex, string) error { return nil }

func (m *mockIndexService) Load(_ context.Context, location string) (driven.VectorIndex, error) {
	m.location = location
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return brute.Build(domain.IndexManifest{}, nil)
}

func (m *mockIndexService) Location(location string) string {
	if location == "" {
		return "/home/test/.codetutor/vector_store"
	}
	return location
}

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

type mockAnswerService struct {
	err      error
	question string
	opts     domain.AnswerOptions
}

func (m *mockAnswerService) Answer(
	_ context.Context, _ driven.VectorIndex, question string, opts domain.AnswerOptions,
) (*domain.Answer, error) {
	m.question, m.opts = question, opts
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Answer{
		Question: question,
		Text:     "A tuple is immutable; a list is not.",
		Context:  testPassages(),
		Model:    "phi3",
	}, nil
}

type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	setErr      error
	pingErr     error
	set         map[string]string
	embedding   []string
	llm         []string
}

func newMockSettingsService() *mockSettingsService {
	s := domain.DefaultAppSettings()
	s.Index.Location = "/home/test/.codetutor/vector_store"
	return &mockSettingsService{settings: s, set: make(map[string]string)}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"chunking.overlap", "chunking.size", "retrieval.top_k"}
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.embedding = []string{string(p), model, apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.llm = []string{string(p), model, apiKey}
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingErr }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.pingErr }

type mockPromptAssets struct {
	content string
	reset   string
}

func (m *mockPromptAssets) Load(name string) (string, error) {
	if name != driven.PromptAnswer {
		return "", fmt.Errorf("%w: prompt %q", domain.ErrConfigNotFound, name)
	}
	return m.content, nil
}

func (m *mockPromptAssets) Path(name string) string {
	return "/home/test/.codetutor/prompts/" + name + ".txt"
}

func (m *mockPromptAssets) Reset(name string) error {
	m.reset = name
	return nil
}

type testServices struct {
	index     *mockIndexService
	retrieval *mockRetrievalService
	answer    *mockAnswerService
	settings  *mockSettingsService
	prompts   *mockPromptAssets
}

func testPassages() []domain.ScoredChunk {
	return []domain.ScoredChunk{
		{EntryID: 3, Score: 0.91, Chunk: domain.Chunk{
			Content:  "Tuples cannot be changed after creation.",
			Metadata: map[string]any{"source": "notes.pdf"},
		}},
		{EntryID: 7, Score: 0.52, Chunk: domain.Chunk{Content: "Lists support append."}},
	}
}

// setupTestServices installs mocks for every service and returns a cleanup func.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		index:     &mockIndexService{},
		retrieval: &mockRetrievalService{results: testPassages()},
		answer:    &mockAnswerService{},
		settings:  newMockSettingsService(),
		prompts:   &mockPromptAssets{content: "# version: 2\nContext:\n{context}\n\nQ: {question}"},
	}
	SetServices(&Services{
		Index:     ts.index,
		Retrieval: ts.retrieval,
		Answer:    ts.answer,
		Settings:  ts.settings,
		Prompts:   ts.prompts,
	})
	return ts, func() { SetServices(nil) }
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "codetutor", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "ask", "search", "serve", "mcp", "settings", "prompts", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("home"))
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "Error: boom", formatError(errors.New("boom")))
	assert.Equal(t,
		"Error [index_not_found]: load index: index not found",
		formatError(fmt.Errorf("load index: %w", domain.ErrIndexNotFound)))
}

func TestSetServices_NilClears(t *testing.T) {
	_, cleanup := setupTestServices()
	cleanup()

	assert.Nil(t, indexService)
	assert.Nil(t, retrievalService)
	assert.Nil(t, answerService)
	assert.Nil(t, settingsService)
	assert.Nil(t, promptAssets)
}

func TestBootstrap_ReceivesHomeFlag(t *testing.T) {
	var gotHome string
	cleaned := false
	SetBootstrap(func(home string) (*Services, func(), error) {
		gotHome = home
		return &Services{Settings: newMockSettingsService()}, func() { cleaned = true }, nil
	})
	defer func() {
		SetBootstrap(nil)
		SetServices(nil)
		homeDir = ""
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--home", "/tmp/ct-home", "settings", "keys"})
	defer rootCmd.SetArgs(nil)

	code := Execute()

	assert.Equal(t, 0, code)
	assert.Equal(t, "/tmp/ct-home", gotHome)
	assert.True(t, cleaned)
	assert.Contains(t, buf.String(), "retrieval.top_k")
}

func TestBootstrap_ErrorIsReported(t *testing.T) {
	SetBootstrap(func(string) (*Services, func(), error) {
		return nil, nil, errors.New("config unreadable")
	})
	defer SetBootstrap(nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"settings", "keys"})
	defer rootCmd.SetArgs(nil)

	code := Execute()

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "initialise: config unreadable")
}

func TestBootstrap_SkippedForVersion(t *testing.T) {
	called := false
	SetBootstrap(func(string) (*Services, func(), error) {
		called = true
		return &Services{}, nil, nil
	})
	defer SetBootstrap(nil)

	_, err := execute(t, "version")

	require.NoError(t, err)
	assert.False(t, called)
}

func TestExecute_PrintsErrorKind(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.loadErr = fmt.Errorf("%w: /nowhere", domain.ErrIndexNotFound)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask", "what is a list?"})
	defer rootCmd.SetArgs(nil)

	code := Execute()

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "Error [index_not_found]")
}
