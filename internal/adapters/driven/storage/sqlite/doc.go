// Package sqlite persists vector indexes as SQLite databases.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Each index location is a directory holding index.db, which
// contains the manifest and one row per entry (chunk payload plus the vector
// as a little-endian float32 blob).
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory.
//
// # Atomic Replace
//
// Save writes a fresh database next to the target and renames it into place,
// so a reader opening the location sees the previous index or the new one,
// never a partially written file. Load opens the database read-only.
package sqlite
