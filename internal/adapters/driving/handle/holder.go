// Package handle keeps the current index handle for long-running servers.
package handle

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
	"github.com/custodia-labs/codetutor/internal/core/ports/driving"
)

// Holder publishes an immutable index handle to concurrent readers.
// Readers never lock; a rebuild swaps in the new handle atomically.
// A load that started before a swap never replaces the swapped handle.
type Holder struct {
	indexes  driving.IndexService
	location string

	current atomic.Pointer[loaded]
	loadMu  sync.Mutex

	// publishMu orders writers of current; gen counts publications.
	publishMu sync.Mutex
	gen       uint64
}

type loaded struct {
	index driven.VectorIndex
}

// New creates a holder for the index at location.
// Empty location uses the configured one.
func New(indexes driving.IndexService, location string) *Holder {
	return &Holder{indexes: indexes, location: indexes.Location(location)}
}

// Location returns the resolved index location.
func (h *Holder) Location() string {
	return h.location
}

// Current returns the loaded handle, or nil.
func (h *Holder) Current() driven.VectorIndex {
	if l := h.current.Load(); l != nil {
		return l.index
	}
	return nil
}

// Get returns the loaded handle, loading it from the store on first use.
func (h *Holder) Get(ctx context.Context) (driven.VectorIndex, error) {
	if ix := h.Current(); ix != nil {
		return ix, nil
	}

	h.loadMu.Lock()
	defer h.loadMu.Unlock()
	if ix := h.Current(); ix != nil {
		return ix, nil
	}
	if _, err := h.load(ctx); err != nil {
		return nil, err
	}
	return h.Current(), nil
}

// Reload reads the persisted index again and publishes it, unless a newer
// handle was swapped in while it was loading. It reports whether the
// reloaded handle was published.
func (h *Holder) Reload(ctx context.Context) (bool, error) {
	h.loadMu.Lock()
	defer h.loadMu.Unlock()
	return h.load(ctx)
}

// Swap publishes index as the current handle.
func (h *Holder) Swap(index driven.VectorIndex) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()
	h.gen++
	h.current.Store(&loaded{index: index})
}

// load reads the index and publishes it if no swap happened meanwhile.
// Callers hold loadMu.
func (h *Holder) load(ctx context.Context) (bool, error) {
	h.publishMu.Lock()
	started := h.gen
	h.publishMu.Unlock()

	ix, err := h.indexes.Load(ctx, h.location)
	if err != nil {
		return false, err
	}

	h.publishMu.Lock()
	defer h.publishMu.Unlock()
	if h.gen != started {
		return false, nil
	}
	h.gen++
	h.current.Store(&loaded{index: ix})
	return true, nil
}
