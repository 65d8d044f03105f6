package normalisers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
)

// Ensure FileLoader implements the interface.
var _ driven.DocumentLoader = FileLoader{}

// FileLoader reads documents from the local filesystem.
type FileLoader struct{}

// Load reads path and tags it with a MIME type guessed from its extension.
func (FileLoader) Load(ctx context.Context, path string) (*domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: no path given", domain.ErrInvalidDocument)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidDocument, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidDocument, path)
	}

	return &domain.RawDocument{
		URI:      path,
		MIMEType: DetectMIMEType(path),
		Content:  data,
		Metadata: map[string]any{
			"file_name": filepath.Base(path),
			"size":      info.Size(),
		},
	}, nil
}
