package driving

import (
	"context"

	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
)

// IndexService builds, persists and loads vector indexes.
// Builds and persists are serialised per location.
type IndexService interface {
	// BuildIndex loads, chunks and embeds a document, then persists the index.
	BuildIndex(ctx context.Context, req domain.IngestRequest) (driven.VectorIndex, *domain.IngestResult, error)

	// Persist writes an existing index to location.
	Persist(ctx context.Context, index driven.VectorIndex, location string) error

	// Load reads the index stored at location. Empty location uses the configured one.
	Load(ctx context.Context, location string) (driven.VectorIndex, error)

	// Location resolves the effective index location.
	Location(location string) string
}
