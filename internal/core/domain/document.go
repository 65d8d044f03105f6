package domain

import "time"

// Document represents a loaded source document.
// It is immutable once normalised.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path, URL, etc).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was loaded.
	CreatedAt time.Time
}

// Chunk is an overlapping passage of a Document.
// Start and End are character offsets into Document.Content and
// Content is exactly that span.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links back to the parent Document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int

	// Start is the offset of the first character.
	Start int

	// End is the offset one past the last character.
	End int

	// Content is the text content of this chunk.
	Content string

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// Len returns the chunk length in characters.
func (c Chunk) Len() int {
	return c.End - c.Start
}
