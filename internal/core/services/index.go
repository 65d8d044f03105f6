package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/codetutor/internal/checksum"
	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
	"github.com/custodia-labs/codetutor/internal/core/ports/driving"
	"github.com/custodia-labs/codetutor/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// embedBatchSize is the number of chunk texts sent per EmbedBatch call.
const embedBatchSize = 16

// IndexService turns a document into a persisted, searchable index.
type IndexService struct {
	loader   driven.DocumentLoader
	registry driven.NormaliserRegistry
	pipeline driven.PostProcessorPipeline
	embedder driven.EmbeddingService
	builder  driven.VectorIndexBuilder
	store    driven.IndexStore
	settings domain.AppSettings
	locks    *keyedMutex
}

// NewIndexService creates an index service.
// The embedder may be nil, in which case BuildIndex fails with
// ErrEmbeddingUnavailable but Load still works.
func NewIndexService(
	loader driven.DocumentLoader,
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	builder driven.VectorIndexBuilder,
	store driven.IndexStore,
	settings *domain.AppSettings,
) *IndexService {
	s := &IndexService{
		loader:   loader,
		registry: registry,
		pipeline: pipeline,
		embedder: embedder,
		builder:  builder,
		store:    store,
		settings: domain.DefaultAppSettings(),
		locks:    newKeyedMutex(),
	}
	if settings != nil {
		s.settings = *settings
	}
	return s
}

// Location returns location, or the configured index location when empty.
func (s *IndexService) Location(location string) string {
	if location != "" {
		return location
	}
	return s.settings.Index.Location
}

// BuildIndex loads, normalises, chunks and embeds a document, then persists
// the index. The whole build holds the lock for its location.
func (s *IndexService) BuildIndex(
	ctx context.Context, req domain.IngestRequest,
) (driven.VectorIndex, *domain.IngestResult, error) {
	logger.Section("Ingest")
	start := time.Now()

	if s.embedder == nil {
		return nil, nil, domain.ErrEmbeddingUnavailable
	}
	location := s.Location(req.Location)
	if location == "" {
		return nil, nil, fmt.Errorf("%w: no index location configured", domain.ErrInvalidArgument)
	}

	unlock := s.locks.Lock(location)
	defer unlock()

	doc, err := s.loadDocument(ctx, req.Path)
	if err != nil {
		return nil, nil, err
	}

	chunks, err := s.chunk(ctx, doc)
	if err != nil {
		return nil, nil, err
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return nil, nil, err
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i := range chunks {
		entries[i] = domain.IndexEntry{ID: i, Vector: vectors[i], Chunk: chunks[i]}
	}

	docSum, err := checksum.Text(doc.Content)
	if err != nil {
		return nil, nil, fmt.Errorf("checksum document: %w", err)
	}
	manifest := domain.IndexManifest{
		Model:            s.embedder.ModelName(),
		DocumentURI:      doc.URI,
		DocumentChecksum: docSum,
		ChunkSize:        s.settings.Chunking.Size,
		Overlap:          s.settings.Chunking.Overlap,
		CreatedAt:        time.Now().UTC(),
	}

	index, err := s.builder.Build(manifest, entries)
	if err != nil {
		return nil, nil, fmt.Errorf("build index: %w", err)
	}

	if err := s.save(ctx, location, index); err != nil {
		return nil, nil, err
	}

	result := &domain.IngestResult{
		Location:      location,
		DocumentTitle: doc.Title,
		Chunks:        index.Len(),
		Dimension:     index.Dimension(),
		Model:         manifest.Model,
		Duration:      time.Since(start),
	}
	logger.Info("Indexed %q: %d chunks, %d dimensions, %s",
		result.DocumentTitle, result.Chunks, result.Dimension, result.Duration.Round(time.Millisecond))
	return index, result, nil
}

// Persist writes index to location, replacing whatever is stored there.
func (s *IndexService) Persist(ctx context.Context, index driven.VectorIndex, location string) error {
	if index == nil {
		return fmt.Errorf("%w: index is nil", domain.ErrInvalidArgument)
	}
	location = s.Location(location)
	if location == "" {
		return fmt.Errorf("%w: no index location configured", domain.ErrInvalidArgument)
	}

	unlock := s.locks.Lock(location)
	defer unlock()
	return s.save(ctx, location, index)
}

// Load reads a persisted index without re-embedding.
func (s *IndexService) Load(ctx context.Context, location string) (driven.VectorIndex, error) {
	location = s.Location(location)
	if location == "" {
		return nil, fmt.Errorf("%w: no index location configured", domain.ErrInvalidArgument)
	}
	defer logger.Timed("load index")()

	manifest, entries, err := s.store.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	index, err := s.builder.Build(manifest, entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}

	if s.embedder != nil && manifest.Model != "" && manifest.Model != s.embedder.ModelName() {
		logger.Warn("index at %s was built with %s but the embedder is %s; re-run ingest if results look wrong",
			location, manifest.Model, s.embedder.ModelName())
	}
	logger.Debug("loaded index from %s: %d entries", location, index.Len())
	return index, nil
}

func (s *IndexService) save(ctx context.Context, location string, index driven.VectorIndex) error {
	defer logger.Timed("persist index")()
	if err := s.store.Save(ctx, location, index.Manifest(), index.Entries()); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

func (s *IndexService) loadDocument(ctx context.Context, path string) (*domain.Document, error) {
	defer logger.Timed("load document")()

	raw, err := s.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded %s (%s, %d bytes)", raw.URI, raw.MIMEType, len(raw.Content))

	res, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", path, err)
	}
	return &res.Document, nil
}

func (s *IndexService) chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	defer logger.Timed("chunk")()

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", doc.URI, err)
	}
	logger.Debug("%d chunks from %d characters", len(chunks), len([]rune(doc.Content)))
	return chunks, nil
}

// embedChunks embeds chunk texts in batches, several batches at a time.
// The result is index aligned with chunks.
func (s *IndexService) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	defer logger.Timed("embed chunks")()

	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.settings.Embedding.BatchConcurrency))

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for i := start; i < end; i++ {
				texts = append(texts, chunks[i].Content)
			}

			callCtx, cancel := withTimeout(gctx, s.settings.Embedding.Timeout)
			defer cancel()

			batch, err := s.embedder.EmbedBatch(callCtx, texts)
			if err != nil {
				return upstreamError(callCtx, domain.ErrEmbeddingFailed,
					fmt.Sprintf("embed chunks %d-%d", start, end-1), err)
			}
			if len(batch) != len(texts) {
				return fmt.Errorf("%w: got %d vectors for %d chunks",
					domain.ErrEmbeddingFailed, len(batch), len(texts))
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return vectors, checkDimensions(vectors, s.embedder.Dimensions())
}

// checkDimensions verifies every vector is non-empty and the same size,
// and matches want when the embedder declares one.
func checkDimensions(vectors [][]float32, want int) error {
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty vector for chunk %d", domain.ErrEmbeddingFailed, i)
		}
		if want > 0 && len(v) != want {
			return fmt.Errorf("%w: chunk %d has %d dimensions, embedder declares %d",
				domain.ErrDimensionMismatch, i, len(v), want)
		}
		if len(v) != len(vectors[0]) {
			return fmt.Errorf("%w: chunk %d has %d dimensions, chunk 0 has %d",
				domain.ErrDimensionMismatch, i, len(v), len(vectors[0]))
		}
	}
	return nil
}
