package driven

import (
	"context"

	"github.com/custodia-labs/codetutor/internal/core/domain"
)

// DocumentLoader reads a source document as raw bytes with a detected MIME type.
type DocumentLoader interface {
	// Load reads the document at path.
	// Missing, unreadable or empty files fail with ErrInvalidDocument.
	Load(ctx context.Context, path string) (*domain.RawDocument, error)
}
