// Package session provides the persisted session record, its versioned codec,
// and durable backends used to restore a dashboard session across restarts.
//
// # Record encoding
//
// Records are stored as a small JSON envelope:
//
//	{"state":{"token":"...","user":{...}},"version":1}
//
// Decoding is strict. Unknown versions, malformed payloads and records that break
// the token/user pairing are reported as [ErrRecordCorrupt]; callers treat that as
// "no session" and never as an authenticated state.
//
// # Architecture boundaries
//
// This package owns the [Record] model, the [Store] persistence adapter and its
// [Backend] implementations (memory, file, Redis, SQL, Postgres). It does NOT decide
// whether a session is hydrated, route navigation, or talk to the backend REST API;
// those responsibilities belong to the goGate root package.
//
// # What this package must NOT do
//
//   - Import goGate or api (no upward imports).
//   - Log or otherwise expose token values.
//   - Return a partially decoded record alongside an error.
package session
