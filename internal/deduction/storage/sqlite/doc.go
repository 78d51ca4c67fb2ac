// Package sqlite provides a SQLite-backed deduction store.
//
// It persists sessions, per-character memory, the append-only interaction
// log, and round-boundary checkpoints in one database file.
package sqlite
