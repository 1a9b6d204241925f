// Package internal groups helpers that are private to goGate.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - credctx: context marker for requests sent without session credentials
//   - writeq: ordered single-worker queue for persistence writes
//   - mockapi: in-process fake of the dashboard REST API for tests and gatectl
//   - cli: the gatectl command tree
//
// # What this package must NOT do
//
//   - Export types that appear in the public goGate API.
//   - Be imported by any package outside the goGate module.
package internal
