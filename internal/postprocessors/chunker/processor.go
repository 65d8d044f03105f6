// Package chunker splits documents into overlapping passages.
//
// Lengths are measured in characters (runes). Each chunk ends at the best
// natural boundary inside its window, preferring paragraph breaks, then line
// breaks, then sentence ends, then word boundaries, and finally a hard cut.
// The next chunk starts exactly overlap characters before the previous end,
// so removing the leading overlap from every chunk after the first and
// concatenating reproduces the document.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/codetutor/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Processor splits document content into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// Invalid sizes are reported by Validate and by Process.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Validate checks that 0 <= overlap < chunk size.
func (p *Processor) Validate() error {
	return validate(p.chunkSize, p.overlap)
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	return Split(doc, p.chunkSize, p.overlap)
}

// Split divides doc.Content into chunks of at most chunkSize characters
// sharing exactly overlap characters with their neighbours.
func Split(doc *domain.Document, chunkSize, overlap int) ([]domain.Chunk, error) {
	if err := validate(chunkSize, overlap); err != nil {
		return nil, err
	}
	if doc == nil || strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("%w: document has no text", domain.ErrInvalidDocument)
	}

	text := []rune(doc.Content)
	n := len(text)
	chunks := make([]domain.Chunk, 0, n/(chunkSize-overlap)+1)

	start := 0
	for {
		end := chunkEnd(text, start, chunkSize, overlap)
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Position:   len(chunks),
			Start:      start,
			End:        end,
			Content:    string(text[start:end]),
			Metadata:   make(map[string]any),
		})
		if end == n {
			return chunks, nil
		}
		start = end - overlap
	}
}

func validate(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidArgument, chunkSize)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrInvalidArgument, overlap)
	}
	if overlap >= chunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidArgument, overlap, chunkSize)
	}
	return nil
}

// breakers are tried in order of preference. Each reports whether a chunk
// ending just before text[end] ends on that kind of boundary.
var breakers = []func(text []rune, end int) bool{
	isParagraphEnd,
	isLineEnd,
	isSentenceEnd,
	isWordEnd,
}

// chunkEnd picks the exclusive end of the chunk starting at start.
func chunkEnd(text []rune, start, size, overlap int) int {
	n := len(text)
	limit := start + size
	if limit >= n {
		return n
	}

	// Half full at least, and always past the overlap so the next start advances.
	lowest := start + max(size/2, overlap+1)

	// If a hard cut lets the next chunk finish the document, a boundary must too.
	if n-(limit-overlap) <= size {
		lowest = max(lowest, n-size+overlap)
	}

	for _, isBreak := range breakers {
		for end := limit; end >= lowest; end-- {
			if isBreak(text, end) {
				return end
			}
		}
	}
	return limit
}

func isParagraphEnd(text []rune, end int) bool {
	return end >= 2 && text[end-1] == '\n' && text[end-2] == '\n'
}

func isLineEnd(text []rune, end int) bool {
	return text[end-1] == '\n'
}

func isSentenceEnd(text []rune, end int) bool {
	if end < 2 || !unicode.IsSpace(text[end-1]) {
		return false
	}
	switch text[end-2] {
	case '.', '!', '?':
		return true
	default:
		return false
	}
}

func isWordEnd(text []rune, end int) bool {
	return unicode.IsSpace(text[end-1])
}
