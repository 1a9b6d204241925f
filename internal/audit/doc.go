// Package audit relays session lifecycle events (login, logout, forced
// invalidation, discarded persisted records) to a caller-supplied sink without
// blocking the session store.
//
// # Architecture boundaries
//
// This package owns buffering and delivery. It does NOT decide which events to
// emit; the goGate store and transport do.
//
// # What this package must NOT do
//
//   - Import goGate or any sibling internal package.
//   - Carry token values in events.
package audit
