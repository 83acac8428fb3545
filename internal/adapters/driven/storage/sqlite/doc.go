// Package sqlite provides a SQLite-backed implementation of the checkpoint store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Each checkpoint is one row holding the
// JSON-encoded record plus a few denormalised columns for ad-hoc queries.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database path comes from checkpoint.path, by default
// <output_dir>/checkpoint.db.
//
// # Thread Safety
//
// A single controller process writes. Readers such as status --watch rely on
// WAL mode to read while a run is in progress.
package sqlite
