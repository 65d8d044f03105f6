package postprocessors

import (
	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
	"github.com/custodia-labs/codetutor/internal/postprocessors/chunker"
)

// Processor names.
const (
	ChunkerName    = "chunker"
	SourceInfoName = "source_info"
)

// DefaultProcessors is the pipeline used for ingest.
var DefaultProcessors = []string{ChunkerName, SourceInfoName}

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(ChunkerName, buildChunker)
	r.Register(SourceInfoName, func(map[string]any) (driven.PostProcessor, error) {
		return NewSourceInfo(), nil
	})
}

// ChunkerConfig converts chunking settings into registry config.
func ChunkerConfig(s domain.ChunkingSettings) map[string]any {
	return map[string]any{
		"chunk_size": s.Size,
		"overlap":    s.Overlap,
	}
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 300)
//   - overlap (int): Overlapping characters between chunks (default: 50)
//
// Out of range values are rejected rather than adjusted.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	p := chunker.New(opts...)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// getIntFromConfig extracts an int from a generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
