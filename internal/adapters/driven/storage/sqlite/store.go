package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/codetutor/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/codetutor/internal/checksum"
	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
)

// FileName is the database file inside an index location.
const FileName = "index.db"

const manifestKey = "manifest"

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore persists indexes as SQLite databases.
type IndexStore struct{}

// NewIndexStore creates a SQLite-backed index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// Path returns the database path for location.
func Path(location string) string {
	return filepath.Join(location, FileName)
}

// Exists reports whether location holds an index database.
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

// Save writes manifest and entries to a new database and renames it over
// any existing index at location.
func (s *IndexStore) Save(ctx context.Context, location string, manifest domain.IndexManifest, entries []domain.IndexEntry) error {
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

	tmpPath := filepath.Join(location, "."+FileName+"-"+uuid.NewString())
	if err := writeDatabase(ctx, tmpPath, manifest, entries); err != nil {
		os.Remove(tmpPath) //nolint:errcheck
		return err
	}
	if err := os.Rename(tmpPath, Path(location)); err != nil {
		os.Remove(tmpPath) //nolint:errcheck
		return fmt.Errorf("replacing index: %w", err)
	}
	return nil
}

func writeDatabase(ctx context.Context, path string, manifest domain.IndexManifest, entries []domain.IndexEntry) error {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := migrate(db, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshalling manifest: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO index_meta (key, value) VALUES (?, ?)", manifestKey, string(manifestJSON)); err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (id, chunk_id, document_id, position, start_offset, end_offset, content, metadata, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		metadataJSON, err := json.Marshal(e.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.Chunk.ID, e.Chunk.DocumentID, e.Chunk.Position,
			e.Chunk.Start, e.Chunk.End, e.Chunk.Content, string(metadataJSON),
			float32SliceToBytes(e.Vector)); err != nil {
			return fmt.Errorf("saving entry %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load reads the index at location. Any read or decode failure of an
// existing file is reported as ErrIndexCorrupt.
func (s *IndexStore) Load(ctx context.Context, location string) (domain.IndexManifest, []domain.IndexEntry, error) {
	path := Path(location)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.IndexManifest{}, nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, location)
		}
		return domain.IndexManifest{}, nil, fmt.Errorf("stat index: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return domain.IndexManifest{}, nil, corrupt(err)
	}
	defer db.Close()
	// One connection so the manifest and entries come from the same file.
	db.SetMaxOpenConns(1)

	manifest, err := readManifest(ctx, db)
	if err != nil {
		return domain.IndexManifest{}, nil, err
	}
	entries, err := readEntries(ctx, db, manifest.Dimension)
	if err != nil {
		return domain.IndexManifest{}, nil, err
	}

	if len(entries) != manifest.Count {
		return domain.IndexManifest{}, nil, corrupt(fmt.Errorf("manifest lists %d entries, found %d", manifest.Count, len(entries)))
	}
	sum, err := checksum.Entries(entries)
	if err != nil {
		return domain.IndexManifest{}, nil, fmt.Errorf("checksum entries: %w", err)
	}
	if sum != manifest.EntryChecksum {
		return domain.IndexManifest{}, nil, corrupt(errors.New("entry checksum mismatch"))
	}
	return manifest, entries, nil
}

func readManifest(ctx context.Context, db *sql.DB) (domain.IndexManifest, error) {
	var manifest domain.IndexManifest
	var raw string
	row := db.QueryRowContext(ctx, "SELECT value FROM index_meta WHERE key = ?", manifestKey)
	if err := row.Scan(&raw); err != nil {
		return manifest, corrupt(fmt.Errorf("reading manifest: %w", err))
	}
	if err := json.Unmarshal([]byte(raw), &manifest); err != nil {
		return manifest, corrupt(fmt.Errorf("decoding manifest: %w", err))
	}
	return manifest, nil
}

func readEntries(ctx context.Context, db *sql.DB, dimension int) ([]domain.IndexEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, chunk_id, document_id, position, start_offset, end_offset, content, metadata, vector
		FROM entries ORDER BY id
	`)
	if err != nil {
		return nil, corrupt(fmt.Errorf("querying entries: %w", err))
	}
	defer rows.Close()

	var entries []domain.IndexEntry
	for rows.Next() {
		var e domain.IndexEntry
		var metadataJSON string
		var blob []byte
		if err := rows.Scan(&e.ID, &e.Chunk.ID, &e.Chunk.DocumentID, &e.Chunk.Position,
			&e.Chunk.Start, &e.Chunk.End, &e.Chunk.Content, &metadataJSON, &blob); err != nil {
			return nil, corrupt(fmt.Errorf("scanning entry: %w", err))
		}
		if len(blob) != dimension*4 {
			return nil, corrupt(fmt.Errorf("entry %d vector has %d bytes, expected %d", e.ID, len(blob), dimension*4))
		}
		if err := json.Unmarshal([]byte(metadataJSON), &e.Chunk.Metadata); err != nil {
			return nil, corrupt(fmt.Errorf("decoding entry %d metadata: %w", e.ID, err))
		}
		e.Vector = bytesToFloat32Slice(blob)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, corrupt(fmt.Errorf("reading entries: %w", err))
	}
	return entries, nil
}

// migrate runs all pending migrations.
func migrate(db *sql.DB, fsys fs.FS) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	dirEntries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range dirEntries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_index.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Helper Functions ====================

func corrupt(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrIndexCorrupt, err)
}

// float32SliceToBytes converts a []float32 to a little-endian byte slice.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a little-endian byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
