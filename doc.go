// Package goGate is a session authorization gate for dashboard clients: it
// owns the logged-in session, restores it across restarts, decides whether a
// location may be shown, and authenticates outgoing API requests.
//
// The pieces are usable on their own or wired together by [Builder.Build]:
//
//   - [Store] holds the token and identity, persists every change through a
//     [Persistence] adapter, and notifies subscribers synchronously in order.
//   - [Gate] maps (hydrated, authenticated, location class) to a [Decision]
//     and redirects through a [Navigator] with replace semantics.
//   - [Transport] adds the bearer token to each request and clears the
//     session when the backend answers 401.
//
// # Architecture boundaries
//
// goGate is the public surface. Persisted formats and storage backends live
// in the session package; the REST client lives in api. Audit dispatch,
// the persistence write queue and anonymous-request marking live under
// internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Decide ALLOW or redirect before the store is hydrated.
//   - Navigate from the transport. Only the gate navigates.
//   - Treat an unreadable persisted record as a session.
//   - Log tokens.
package goGate
