// Package gobfile persists vector indexes as a single gob-encoded file.
//
// It is the dependency-light alternative to the SQLite store: one file per
// location, written to a temp file and renamed into place.
package gobfile

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/codetutor/internal/checksum"
	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
)

// FileName is the index file inside a location.
const FileName = "index.gob"

// formatVersion is bumped when the on-disk record layout changes.
const formatVersion = 1

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// record is the on-disk layout. Chunk metadata is JSON so gob never has to
// resolve interface types.
type record struct {
	Version  int
	Manifest domain.IndexManifest
	Entries  []entryRecord
}

type entryRecord struct {
	ID         int
	Vector     []float32
	ChunkID    string
	DocumentID string
	Position   int
	Start      int
	End        int
	Content    string
	Metadata   []byte
}

// IndexStore persists indexes as gob files.
type IndexStore struct{}

// NewIndexStore creates a gob-backed index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// Path returns the index file path for location.
func Path(location string) string {
	return filepath.Join(location, FileName)
}

// Exists reports whether location holds an index file.
func (s *IndexStore) Exists(_ context.Context, location string) (bool, error) {
	_, err := os.Stat(Path(location))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Save encodes the index to a temp file and renames it into place.
func (s *IndexStore) Save(_ context.Context, location string, manifest domain.IndexManifest, entries []domain.IndexEntry) error {
	if location == "" {
		return fmt.Errorf("%w: empty index location", domain.ErrInvalidArgument)
	}
	if err := os.MkdirAll(location, 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	sum, err := checksum.Entries(entries)
	if err != nil {
		return fmt.Errorf("checksum entries: %w", err)
	}
	manifest.EntryChecksum = sum
	manifest.Count = len(entries)

	rec := record{Version: formatVersion, Manifest: manifest, Entries: make([]entryRecord, len(entries))}
	for i, e := range entries {
		meta, err := json.Marshal(e.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		rec.Entries[i] = entryRecord{
			ID:         e.ID,
			Vector:     e.Vector,
			ChunkID:    e.Chunk.ID,
			DocumentID: e.Chunk.DocumentID,
			Position:   e.Chunk.Position,
			Start:      e.Chunk.Start,
			End:        e.Chunk.End,
			Content:    e.Chunk.Content,
			Metadata:   meta,
		}
	}

	tmp, err := os.CreateTemp(location, "."+FileName+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // no-op after a successful rename

	if err := gob.NewEncoder(tmp).Encode(rec); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing index: %w", err)
	}
	if err := os.Rename(tmpPath, Path(location)); err != nil {
		return fmt.Errorf("replacing index: %w", err)
	}
	return nil
}

// Load decodes and verifies the index at location.
func (s *IndexStore) Load(_ context.Context, location string) (domain.IndexManifest, []domain.IndexEntry, error) {
	f, err := os.Open(Path(location))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.IndexManifest{}, nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, location)
		}
		return domain.IndexManifest{}, nil, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()

	var rec record
	if err := gob.NewDecoder(f).Decode(&rec); err != nil {
		return domain.IndexManifest{}, nil, corrupt(fmt.Errorf("decoding index: %w", err))
	}
	if rec.Version != formatVersion {
		return domain.IndexManifest{}, nil, corrupt(fmt.Errorf("unsupported format version %d", rec.Version))
	}
	if len(rec.Entries) != rec.Manifest.Count {
		return domain.IndexManifest{}, nil, corrupt(fmt.Errorf("manifest lists %d entries, found %d",
			rec.Manifest.Count, len(rec.Entries)))
	}

	entries := make([]domain.IndexEntry, len(rec.Entries))
	for i, r := range rec.Entries {
		if len(r.Vector) != rec.Manifest.Dimension {
			return domain.IndexManifest{}, nil, corrupt(fmt.Errorf("entry %d has %d dimensions, expected %d",
				r.ID, len(r.Vector), rec.Manifest.Dimension))
		}
		var meta map[string]any
		if err := json.Unmarshal(r.Metadata, &meta); err != nil {
			return domain.IndexManifest{}, nil, corrupt(fmt.Errorf("decoding entry %d metadata: %w", r.ID, err))
		}
		entries[i] = domain.IndexEntry{
			ID:     r.ID,
			Vector: r.Vector,
			Chunk: domain.Chunk{
				ID:         r.ChunkID,
				DocumentID: r.DocumentID,
				Position:   r.Position,
				Start:      r.Start,
				End:        r.End,
				Content:    r.Content,
				Metadata:   meta,
			},
		}
	}

	sum, err := checksum.Entries(entries)
	if err != nil {
		return domain.IndexManifest{}, nil, fmt.Errorf("checksum entries: %w", err)
	}
	if sum != rec.Manifest.EntryChecksum {
		return domain.IndexManifest{}, nil, corrupt(errors.New("entry checksum mismatch"))
	}
	return rec.Manifest, entries, nil
}

func corrupt(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrIndexCorrupt, err)
}
