// Package jsonldb provides a generic, concurrent-safe, JSONL-backed data store.
//
// # Overview
//
// [Table] stores rows in a JSONL (JSON Lines) file and keeps all of them in
// memory for fast reads. Rows are keyed by a [ksid.ID] and returned as clones,
// so callers can freely mutate what they get back.
//
// # Concurrency
//
// [Table.Modify] holds the write lock for the whole read-modify-write cycle.
// Callers that need compare-and-swap semantics on top of it check their own
// revision field inside the callback and return an error to abort.
//
// # File Format
//
// Line 1 is a schema header generated from the row type's JSON schema;
// subsequent lines are JSON rows. Rewrites go through a temporary file and a
// rename so a crash never leaves a half-written table behind.
package jsonldb
