// Package store holds the latest snapshot of each source.
//
// A Table is the handle for one source. ReplaceAll swaps the whole stored
// set for a new one atomically: readers observe either the previous
// generation or the new one, never a mix and never an empty window.
// Different sources use different tables and never contend.
//
// Two implementations exist: PGTable (PostgreSQL, one transaction per
// replace) and MemTable (copy-on-write pointer swap, used for local runs
// and tests).
package store
