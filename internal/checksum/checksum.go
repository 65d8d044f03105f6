// Package checksum computes HighwayHash-64 digests of document text and
// persisted index entries.
// Stores record the entry digest in the manifest and verify it on load,
// which turns silent bit rot or partial writes into ErrIndexCorrupt.
package checksum

import (
	"encoding/binary"
	"hash"
	"math"

	"github.com/minio/highwayhash"

	"github.com/custodia-labs/codetutor/internal/core/domain"
)

// key is fixed so digests are stable across processes and versions.
var key = []byte("codetutor-index-checksum-key-v01")

func newHash() (hash.Hash64, error) {
	return highwayhash.New64(key)
}

// Text hashes document text.
func Text(text string) (uint64, error) {
	h, err := newHash()
	if err != nil {
		return 0, err
	}
	if _, err := h.Write([]byte(text)); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// Entries hashes entry ids, chunk offsets, chunk text and vector bits in order.
func Entries(entries []domain.IndexEntry) (uint64, error) {
	h, err := newHash()
	if err != nil {
		return 0, err
	}

	var buf [8]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:]) //nolint:errcheck // hash writes never fail
	}

	for _, e := range entries {
		writeInt(e.ID)
		writeInt(e.Chunk.Position)
		writeInt(e.Chunk.Start)
		writeInt(e.Chunk.End)
		writeInt(len(e.Chunk.Content))
		h.Write([]byte(e.Chunk.Content)) //nolint:errcheck
		writeInt(len(e.Vector))
		for _, f := range e.Vector {
			binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(f))
			h.Write(buf[:4]) //nolint:errcheck
		}
	}
	return h.Sum64(), nil
}
