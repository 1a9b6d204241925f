// Package writeq serializes persistence writes onto a single worker so durable
// state changes land in the order they were applied in memory.
//
// # Architecture boundaries
//
// This package owns ordering and draining only. It does NOT know what a session is;
// callers enqueue closures and receive failures through an error callback.
//
// # What this package must NOT do
//
//   - Drop, merge or reorder queued writes.
//   - Block Enqueue on the write itself (only on queue capacity).
package writeq
