package driven

import (
	"context"

	"github.com/custodia-labs/codetutor/internal/core/domain"
)

// VectorIndex is an immutable, searchable set of index entries.
// It is the handle passed from ingest to query. Implementations may use
// exact or approximate nearest neighbour search.
type VectorIndex interface {
	// Search returns the k entries most similar to query, best first.
	// Ties are broken by lower entry ID. k <= 0 fails with ErrInvalidArgument;
	// k larger than Len returns every entry.
	Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error)

	// Len returns the number of entries.
	Len() int

	// Dimension returns the vector size shared by all entries (0 when empty).
	Dimension() int

	// Manifest returns the metadata the index was built with.
	Manifest() domain.IndexManifest

	// Entries returns the entry set in ID order. Callers must not modify it.
	Entries() []domain.IndexEntry
}

// VectorIndexBuilder constructs a VectorIndex from entries.
type VectorIndexBuilder interface {
	// Build validates entries and returns a searchable index.
	// Mixed vector sizes fail with ErrDimensionMismatch.
	Build(manifest domain.IndexManifest, entries []domain.IndexEntry) (VectorIndex, error)
}

// IndexStore persists index entries at a location (typically a directory).
type IndexStore interface {
	// Save writes the manifest and entries, replacing any previous index at location.
	// Readers of location observe either the old or the new index.
	Save(ctx context.Context, location string, manifest domain.IndexManifest, entries []domain.IndexEntry) error

	// Load reads an index back without re-embedding.
	// Returns ErrIndexNotFound when nothing is stored and ErrIndexCorrupt
	// when the stored data cannot be decoded or fails verification.
	Load(ctx context.Context, location string) (domain.IndexManifest, []domain.IndexEntry, error)

	// Exists reports whether an index is stored at location.
	Exists(ctx context.Context, location string) (bool, error)
}
