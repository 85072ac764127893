// Package sqlite provides the SQLite-backed chunk catalog.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. The catalog is
// optional: it records every ingested document, its chunks and each run
// so downstream loaders can query chunks by company and year without
// re-reading the JSON artifacts.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in
// the migrations/ directory. Each migration is a pair of .up.sql and
// .down.sql files.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
