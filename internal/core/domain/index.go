package domain

import "time"

// IndexEntry pairs a chunk with its embedding vector.
// ID is stable and unique within one index; lower IDs win similarity ties.
type IndexEntry struct {
	// ID is the insertion-order identifier.
	ID int

	// Vector is the chunk embedding.
	Vector []float32

	// Chunk is the payload returned by search.
	Chunk Chunk
}

// IndexManifest describes a built index.
// It is persisted alongside the entries.
type IndexManifest struct {
	// Model is the embedding model that produced the vectors.
	Model string

	// Dimension is the vector length shared by all entries (0 when empty).
	Dimension int

	// Count is the number of entries.
	Count int

	// DocumentURI is the source the index was built from.
	DocumentURI string

	// DocumentChecksum is a content hash of the source text.
	DocumentChecksum uint64

	// EntryChecksum is a hash over entry ids, chunk text and vectors.
	// Set by the store when persisting.
	EntryChecksum uint64

	// ChunkSize is the chunker size used at build time.
	ChunkSize int

	// Overlap is the chunker overlap used at build time.
	Overlap int

	// CreatedAt is when the index was built.
	CreatedAt time.Time
}

// ScoredChunk is a single retrieval hit.
type ScoredChunk struct {
	// EntryID is the IndexEntry the chunk came from.
	EntryID int

	// Chunk is the matched passage.
	Chunk Chunk

	// Score is the cosine similarity in [-1, 1].
	Score float64
}

// Chunks extracts the passages from a retrieval result, keeping order.
func Chunks(results []ScoredChunk) []Chunk {
	chunks := make([]Chunk, len(results))
	for i := range results {
		chunks[i] = results[i].Chunk
	}
	return chunks
}

// Answer is a generated response plus the context it was grounded on.
type Answer struct {
	// Question is the query as asked.
	Question string

	// Text is the generator output.
	Text string

	// Context holds the retrieved passages, best first.
	Context []ScoredChunk

	// Model is the generating model.
	Model string
}

// AnswerOptions tunes a single answer request.
// Zero values fall back to the configured settings.
type AnswerOptions struct {
	// TopK is the number of passages to retrieve.
	TopK int
}

// IngestRequest describes a document to index.
type IngestRequest struct {
	// Path is the file to load.
	Path string

	// Location is where the index is persisted. Empty uses the configured location.
	Location string
}

// IngestResult summarises a completed build.
type IngestResult struct {
	// Location is where the index was persisted.
	Location string

	// DocumentTitle is the normalised document title.
	DocumentTitle string

	// Chunks is the number of indexed passages.
	Chunks int

	// Dimension is the embedding vector size.
	Dimension int

	// Model is the embedding model.
	Model string

	// Duration is the wall time of the build.
	Duration time.Duration
}
