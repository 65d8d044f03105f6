package brute

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codetutor/internal/core/domain"
)

func entry(id int, text string, v ...float32) domain.IndexEntry {
	return domain.IndexEntry{ID: id, Vector: v, Chunk: domain.Chunk{ID: text, Content: text, Position: id}}
}

func testIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Build(domain.IndexManifest{Model: "test"}, []domain.IndexEntry{
		entry(0, "lists", 1, 0, 0),
		entry(1, "tuples", 0, 1, 0),
		entry(2, "dicts", 0.7, 0.7, 0),
		entry(3, "sets", 0, 0, 1),
	})
	require.NoError(t, err)
	return ix
}

func TestBuild_SetsManifest(t *testing.T) {
	ix := testIndex(t)

	assert.Equal(t, 4, ix.Len())
	assert.Equal(t, 3, ix.Dimension())
	assert.Equal(t, 3, ix.Manifest().Dimension)
	assert.Equal(t, 4, ix.Manifest().Count)
	assert.Equal(t, "test", ix.Manifest().Model)
}

func TestBuild_DimensionMismatch(t *testing.T) {
	_, err := Build(domain.IndexManifest{}, []domain.IndexEntry{
		entry(0, "a", 1, 0, 0),
		entry(1, "b", 1, 0),
	})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestBuild_ManifestDimensionMismatch(t *testing.T) {
	_, err := Build(domain.IndexManifest{Dimension: 4}, []domain.IndexEntry{entry(0, "a", 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestBuild_DuplicateIDs(t *testing.T) {
	_, err := Build(domain.IndexManifest{}, []domain.IndexEntry{entry(1, "a", 1), entry(1, "b", 2)})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestBuild_CopiesEntries(t *testing.T) {
	entries := []domain.IndexEntry{entry(1, "b", 0, 1), entry(0, "a", 1, 0)}
	ix, err := Build(domain.IndexManifest{}, entries)
	require.NoError(t, err)

	entries[0] = entry(9, "changed", 1, 1)
	assert.Equal(t, 0, ix.Entries()[0].ID)
	assert.Equal(t, 1, ix.Entries()[1].ID)
}

func TestSearch_BestFirst(t *testing.T) {
	ix := testIndex(t)

	results, err := ix.Search(context.Background(), []float32{1, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "lists", results[0].Chunk.Content)
	assert.Equal(t, "dicts", results[1].Chunk.Content)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearch_KLargerThanCountReturnsAll(t *testing.T) {
	ix := testIndex(t)

	results, err := ix.Search(context.Background(), []float32{0, 0, 1}, 50)
	require.NoError(t, err)
	assert.Len(t, results, 4)
	assert.Equal(t, "sets", results[0].Chunk.Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestSearch_InvalidK(t *testing.T) {
	ix := testIndex(t)

	for _, k := range []int{0, -1} {
		_, err := ix.Search(context.Background(), []float32{1, 0, 0}, k)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	}
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	ix := testIndex(t)

	_, err := ix.Search(context.Background(), []float32{1, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestSearch_EmptyIndex(t *testing.T) {
	ix, err := Build(domain.IndexManifest{}, nil)
	require.NoError(t, err)

	results, err := ix.Search(context.Background(), []float32{1, 2, 3}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, ix.Dimension())

	_, err = ix.Search(context.Background(), []float32{1}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSearch_TiesBrokenByLowerID(t *testing.T) {
	ix, err := Build(domain.IndexManifest{}, []domain.IndexEntry{
		entry(5, "five", 1, 0),
		entry(2, "two", 2, 0),
		entry(7, "seven", 0, 1),
		entry(3, "three", 3, 0),
	})
	require.NoError(t, err)

	results, err := ix.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 5}, []int{results[0].EntryID, results[1].EntryID, results[2].EntryID})
}

func TestSearch_ZeroVectors(t *testing.T) {
	ix, err := Build(domain.IndexManifest{}, []domain.IndexEntry{
		entry(0, "zero", 0, 0),
		entry(1, "x", 1, 0),
	})
	require.NoError(t, err)

	results, err := ix.Search(context.Background(), []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, "x", results[0].Chunk.Content)
	assert.Equal(t, "zero", results[1].Chunk.Content)
	assert.Equal(t, minSimilarity, results[1].Score)

	results, err = ix.Search(context.Background(), []float32{0, 0}, 2)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, minSimilarity, r.Score)
	}
	assert.Equal(t, 0, results[0].EntryID)
}

func TestSearch_NonIncreasingScores(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	entries := make([]domain.IndexEntry, 300)
	for i := range entries {
		v := make([]float32, 16)
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		entries[i] = domain.IndexEntry{ID: i, Vector: v}
	}
	ix, err := Build(domain.IndexManifest{}, entries)
	require.NoError(t, err)

	query := make([]float32, 16)
	for j := range query {
		query[j] = rng.Float32()*2 - 1
	}

	for _, k := range []int{1, 10, 300, 1000} {
		results, err := ix.Search(context.Background(), query, k)
		require.NoError(t, err)
		assert.Len(t, results, min(k, len(entries)))
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
			if results[i-1].Score == results[i].Score {
				assert.Less(t, results[i-1].EntryID, results[i].EntryID)
			}
		}
	}
}

func TestSearch_ConcurrentReaders(t *testing.T) {
	ix := testIndex(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := ix.Search(context.Background(), []float32{0, 1, 0}, 1)
			assert.NoError(t, err)
			assert.Equal(t, "tuples", results[0].Chunk.Content)
		}()
	}
	wg.Wait()
}

func TestSearch_CancelledContext(t *testing.T) {
	ix := testIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ix.Search(ctx, []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuilder_ImplementsPort(t *testing.T) {
	idx, err := Builder{}.Build(domain.IndexManifest{}, []domain.IndexEntry{entry(0, "a", 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
}
