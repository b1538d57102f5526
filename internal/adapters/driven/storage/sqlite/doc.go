// Package sqlite provides the SQLite implementation of the DocumentStore port.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Chunk rows are keyed by (file_path, chunk_index) with indexes for point and
// range lookups by path.
//
// # Data Location
//
// By default, the database is stored at ~/.recall/data/recall.db
//
// # Thread Safety
//
// The database runs in WAL mode: one writer and any number of readers, with
// readers never blocked by a write in progress.
package sqlite
