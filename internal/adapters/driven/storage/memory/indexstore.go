package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

type storedIndex struct {
	manifest domain.IndexManifest
	entries  []domain.IndexEntry
}

// IndexStore keeps saved indexes in a map keyed by location.
// Entries are deep-copied on the way in and out.
type IndexStore struct {
	mu      sync.RWMutex
	indexes map[string]storedIndex
}

// NewIndexStore creates an empty in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{indexes: make(map[string]storedIndex)}
}

// Exists reports whether an index was saved at location.
func (s *IndexStore) Exists(_ context.Context, location string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[location]
	return ok, nil
}

// Save replaces the index stored at location.
func (s *IndexStore) Save(ctx context.Context, location string, manifest domain.IndexManifest, entries []domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if location == "" {
		return fmt.Errorf("%w: empty index location", domain.ErrInvalidArgument)
	}
	manifest.Count = len(entries)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[location] = storedIndex{manifest: manifest, entries: copyEntries(entries)}
	return nil
}

// Load returns a copy of the index stored at location.
func (s *IndexStore) Load(ctx context.Context, location string) (domain.IndexManifest, []domain.IndexEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.IndexManifest{}, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexes[location]
	if !ok {
		return domain.IndexManifest{}, nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, location)
	}
	return idx.manifest, copyEntries(idx.entries), nil
}

func copyEntries(entries []domain.IndexEntry) []domain.IndexEntry {
	out := make([]domain.IndexEntry, len(entries))
	for i, e := range entries {
		e.Vector = slices.Clone(e.Vector)
		e.Chunk.Metadata = maps.Clone(e.Chunk.Metadata)
		out[i] = e
	}
	return out
}
