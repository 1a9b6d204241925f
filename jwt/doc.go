// Package jwt inspects session tokens issued by the dashboard backend and, for
// tests and local tooling, issues and verifies HS256 tokens with the same claims.
//
// Clients never hold the backend's signing key, so [Inspect] reads claims without
// verifying the signature. Its only use is a fail-closed expiry check on restored
// sessions: an expired token is dropped, an unreadable one is left to the backend.
package jwt
