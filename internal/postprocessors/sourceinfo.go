package postprocessors

import (
	"context"

	"github.com/custodia-labs/codetutor/internal/core/domain"
)

// SourceInfo copies document provenance into chunk metadata so retrieved
// passages can be attributed without the parent document.
type SourceInfo struct{}

// NewSourceInfo creates the processor.
func NewSourceInfo() *SourceInfo {
	return &SourceInfo{}
}

// Name returns the processor name.
func (s *SourceInfo) Name() string {
	return SourceInfoName
}

// Process annotates chunks in place and returns them.
func (s *SourceInfo) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]any)
		}
		chunks[i].Metadata["source"] = doc.URI
		chunks[i].Metadata["title"] = doc.Title
		if page, ok := doc.Metadata["pages"]; ok {
			chunks[i].Metadata["pages"] = page
		}
	}
	return chunks, nil
}
