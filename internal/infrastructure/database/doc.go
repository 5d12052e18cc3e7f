// Package database manages the SQLite store backing the submission
// journal.
//
// It provides connection lifecycle (WAL mode, busy timeout, single-writer
// pool), health checks, and a small versioned migration runner. Each
// migration runs in its own transaction and is recorded in the
// schema_migrations table, so re-running Migrate is always safe.
package database
