// Package api is a typed client for the bar-management REST backend.
//
// The client is transport-agnostic: authentication is added by the
// *http.Client it is given, normally one built around goGate.Transport.
// Endpoints that must never carry a session (login, registration, password
// reset, invitation lookup) mark their request context as anonymous so the
// transport neither attaches a token nor clears the session on 401.
//
// # Errors
//
// Non-2xx responses become *Error. A 401 on an authenticated endpoint
// matches ErrUnauthorized with errors.Is. Login failures are *LoginError and
// match either ErrInvalidCredentials or ErrUnavailable.
package api
