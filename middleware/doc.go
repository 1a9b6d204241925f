// Package middleware exposes net/http adapters for a goGate engine running
// inside a server-rendered dashboard.
//
// # Guards
//
//   - [Gate] serves, redirects (303) or suspends (503) a page by its path.
//   - [RequireSession] answers 401 to JSON endpoints without a session.
//
// # Architecture boundaries
//
// This package translates gate decisions into HTTP status codes. It does NOT
// classify locations or hold session state; both come from goGate.
//
// # What this package must NOT do
//
//   - Navigate through the gate's Navigator. Redirects are per-response.
//   - Read or forward the session token.
//   - Allow a request before the store is hydrated.
package middleware
