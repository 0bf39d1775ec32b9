// Package store is the on-disk artifact cache.
//
// Artifacts are keyed by (program hash, dialect): the program hash covers
// every input the compiler reads, so a hit returns bytes identical to a
// fresh compile. The builds table is an append-only log of compile
// attempts, ordered by a logical sequence rather than wall time.
//
// The store uses SQLite in WAL mode with a single connection. All methods
// are safe for concurrent use.
package store
