package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/custodia-labs/codetutor/internal/adapters/driven/ai"
	"github.com/custodia-labs/codetutor/internal/adapters/driven/config/file"
	"github.com/custodia-labs/codetutor/internal/adapters/driven/storage/gobfile"
	"github.com/custodia-labs/codetutor/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/codetutor/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/codetutor/internal/adapters/driven/vector/brute"
	"github.com/custodia-labs/codetutor/internal/adapters/driving/cli"
	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
	"github.com/custodia-labs/codetutor/internal/core/services"
	"github.com/custodia-labs/codetutor/internal/logger"
	"github.com/custodia-labs/codetutor/internal/normalisers"
	"github.com/custodia-labs/codetutor/internal/postprocessors"
)

// bootstrap wires every adapter into the core services for home.
// Unconfigured or unsupported AI providers are tolerated: the commands that
// need them fail with an unavailable error, the rest keep working.
func bootstrap(home string) (*cli.Services, func(), error) {
	if home == "" {
		dir, err := file.DefaultHome()
		if err != nil {
			return nil, nil, err
		}
		home = dir
	}

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settingsService.SetHome(home)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("read settings: %w", err)
	}
	var embedder driven.EmbeddingService
	if svc, err := ai.CreateEmbeddingService(&settings.Embedding); err != nil {
		logger.Debug("embedding disabled: %v", err)
	} else {
		embedder = svc
	}
	var llm driven.LLMService
	if svc, err := ai.CreateLLMService(&settings.LLM); err != nil {
		logger.Debug("generation disabled: %v", err)
	} else {
		llm = svc
	}

	store, err := newIndexStore(settings.Index.Backend)
	if err != nil {
		return nil, nil, err
	}

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	var pipeline driven.PostProcessorPipeline
	if p, err := buildPipeline(registry, settings.Chunking); err != nil {
		// Ingest reports the error; settings stays usable to fix the value.
		logger.Warn("%v; ingest is disabled until chunking is fixed", err)
		pipeline = rejectingPipeline{err: err}
	} else {
		pipeline = p
	}

	prompts, err := file.NewPromptStore(filepath.Join(home, file.PromptsDirName))
	if err != nil {
		return nil, nil, err
	}

	indexService := services.NewIndexService(
		normalisers.FileLoader{},
		normalisers.Default(),
		pipeline,
		embedder,
		brute.Builder{},
		store,
		settings,
	)
	retrievalService := services.NewRetrievalService(embedder, settings)

	answerService := services.NewAnswerService(retrievalService, llm, prompts, settings)

	cleanup := func() {
		if embedder != nil {
			_ = embedder.Close()
		}
		if llm != nil {
			_ = llm.Close()
		}
	}

	return &cli.Services{
		Index:     indexService,
		Retrieval: retrievalService,
		Answer:    answerService,
		Settings:  settingsService,
		Prompts:   prompts,
		WatchPrompts: func(onReload func(name string)) (io.Closer, error) {
			return file.WatchPrompts(prompts, onReload)
		},
	}, cleanup, nil
}

func buildPipeline(registry *postprocessors.Registry, chunking domain.ChunkingSettings) (*postprocessors.Pipeline, error) {
	pipeline, err := registry.BuildPipeline(postprocessors.DefaultProcessors, map[string]map[string]any{
		postprocessors.ChunkerName: postprocessors.ChunkerConfig(chunking),
	})
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	return pipeline, nil
}

// rejectingPipeline fails every document with a configuration error.
type rejectingPipeline struct {
	err error
}

func (p rejectingPipeline) Process(context.Context, *domain.Document) ([]domain.Chunk, error) {
	return nil, p.err
}

// newIndexStore returns the store for backend.
func newIndexStore(backend domain.IndexBackend) (driven.IndexStore, error) {
	switch backend {
	case domain.IndexBackendSQLite, "":
		return sqlite.NewIndexStore(), nil
	case domain.IndexBackendGob:
		return gobfile.NewIndexStore(), nil
	case domain.IndexBackendMemory:
		return memory.NewIndexStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidArgument, backend)
	}
}
