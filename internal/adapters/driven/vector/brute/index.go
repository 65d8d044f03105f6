// Package brute provides an exact nearest neighbour vector index.
//
// Similarity is cosine similarity computed in float64 over every entry.
// At the scale of a single document (hundreds to low thousands of chunks)
// a linear scan is exact and fast enough. An approximate index can replace
// it behind driven.VectorIndex without touching callers.
package brute

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
)

// Ensure Index and Builder implement the interfaces.
var (
	_ driven.VectorIndex        = (*Index)(nil)
	_ driven.VectorIndexBuilder = Builder{}
)

// minSimilarity is assigned when either vector has zero length.
const minSimilarity = -1.0

// Index is an immutable in-memory vector index.
// All methods are safe for concurrent use.
type Index struct {
	manifest  domain.IndexManifest
	entries   []domain.IndexEntry
	norms     []float64
	dimension int
}

// Builder builds brute-force indexes.
type Builder struct{}

// Build implements driven.VectorIndexBuilder.
func (Builder) Build(manifest domain.IndexManifest, entries []domain.IndexEntry) (driven.VectorIndex, error) {
	return Build(manifest, entries)
}

// Build validates entries and returns an index over a copy of them.
// Entries are ordered by ID. An empty entry set yields an empty index.
func Build(manifest domain.IndexManifest, entries []domain.IndexEntry) (*Index, error) {
	ix := &Index{
		entries: slices.Clone(entries),
		norms:   make([]float64, len(entries)),
	}
	slices.SortFunc(ix.entries, func(a, b domain.IndexEntry) int {
		return cmp.Compare(a.ID, b.ID)
	})

	if len(ix.entries) > 0 {
		ix.dimension = len(ix.entries[0].Vector)
	}
	for i, e := range ix.entries {
		if i > 0 && e.ID == ix.entries[i-1].ID {
			return nil, fmt.Errorf("%w: duplicate entry id %d", domain.ErrInvalidArgument, e.ID)
		}
		if len(e.Vector) != ix.dimension {
			return nil, fmt.Errorf("%w: entry %d has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, e.ID, len(e.Vector), ix.dimension)
		}
		ix.norms[i] = norm(e.Vector)
	}
	if manifest.Dimension != 0 && len(ix.entries) > 0 && manifest.Dimension != ix.dimension {
		return nil, fmt.Errorf("%w: manifest declares %d dimensions, entries have %d",
			domain.ErrDimensionMismatch, manifest.Dimension, ix.dimension)
	}

	manifest.Dimension = ix.dimension
	manifest.Count = len(ix.entries)
	ix.manifest = manifest
	return ix, nil
}

// Search returns the k entries with the highest cosine similarity to query.
func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if len(ix.entries) == 0 {
		return []domain.ScoredChunk{}, nil
	}
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), ix.dimension)
	}

	qNorm := norm(query)
	results := make([]domain.ScoredChunk, len(ix.entries))
	for i := range ix.entries {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		results[i] = domain.ScoredChunk{
			EntryID: ix.entries[i].ID,
			Chunk:   ix.entries[i].Chunk,
			Score:   cosine(query, qNorm, ix.entries[i].Vector, ix.norms[i]),
		}
	}

	// Entries are in ID order, so a stable sort by score keeps lower IDs first on ties.
	slices.SortStableFunc(results, func(a, b domain.ScoredChunk) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Dimension returns the shared vector size.
func (ix *Index) Dimension() int {
	return ix.dimension
}

// Manifest returns the build metadata.
func (ix *Index) Manifest() domain.IndexManifest {
	return ix.manifest
}

// Entries returns the entries in ID order. The slice is shared; do not modify.
func (ix *Index) Entries() []domain.IndexEntry {
	return ix.entries
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return minSimilarity
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	sim := dot / (aNorm * bNorm)
	// Rounding can push parallel vectors just past 1.
	return math.Max(minSimilarity, math.Min(1, sim))
}
