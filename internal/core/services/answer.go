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

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// AnswerService runs retrieve, assemble and generate as one pass.
// Nothing is retried and nothing is kept between calls.
type AnswerService struct {
	retriever driving.RetrievalService
	llm       driven.LLMService
	prompts   driven.PromptStore
	settings  domain.LLMSettings
}

// NewAnswerService creates an answer service.
// The prompt template is loaded from prompts on every call so edits apply
// without a restart.
func NewAnswerService(
	retriever driving.RetrievalService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings *domain.AppSettings,
) *AnswerService {
	s := &AnswerService{
		retriever: retriever,
		llm:       llm,
		prompts:   prompts,
		settings:  domain.DefaultAppSettings().LLM,
	}
	if settings != nil {
		s.settings = settings.LLM
	}
	return s
}

// Answer grounds query in the passages retrieved from index.
// An empty index still produces an answer; the template tells the model to
// report missing coverage when the context block is empty.
func (s *AnswerService) Answer(
	ctx context.Context, index driven.VectorIndex, query string, opts domain.AnswerOptions,
) (*domain.Answer, error) {
	logger.Section("Answer")
	defer logger.Timed("answer")()

	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if opts.TopK < 0 {
		return nil, fmt.Errorf("%w: top_k must not be negative, got %d", domain.ErrInvalidArgument, opts.TopK)
	}

	assembler, err := s.assembler()
	if err != nil {
		return nil, err
	}

	results, err := s.retriever.Retrieve(ctx, index, query, opts.TopK)
	if err != nil {
		return nil, err
	}

	prompt := assembler.Assemble(domain.Chunks(results), query)
	logger.Debug("prompt: %d characters, %d passages", len(prompt), len(results))

	text, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		Question: query,
		Text:     text,
		Context:  results,
		Model:    s.llm.ModelName(),
	}, nil
}

func (s *AnswerService) assembler() (*Assembler, error) {
	if s.prompts == nil {
		return nil, fmt.Errorf("%w: no prompt store", domain.ErrConfigNotFound)
	}
	template, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		return nil, fmt.Errorf("load prompt %q: %w", driven.PromptAnswer, err)
	}
	return NewAssembler(template)
}

func (s *AnswerService) generate(ctx context.Context, prompt string) (string, error) {
	defer logger.Timed("generate")()

	callCtx, cancel := withTimeout(ctx, s.settings.Timeout)
	defer cancel()

	text, err := s.llm.Generate(callCtx, prompt, driven.GenerateOptions{
		MaxTokens:   s.settings.MaxTokens,
		Temperature: s.settings.Temperature,
	})
	if err != nil {
		return "", upstreamError(callCtx, domain.ErrGenerationFailed, "generate", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty response from %s", domain.ErrGenerationFailed, s.llm.ModelName())
	}
	return text, nil
}
