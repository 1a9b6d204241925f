package goGate

import (
	"errors"

	"github.com/MrEthical07/goGate/api"
)

var (
	// ErrTokenRequired is returned by Login when the token is empty.
	ErrTokenRequired = errors.New("session token required")
	// ErrIdentityRequired is returned by Login when the identity is missing or invalid.
	ErrIdentityRequired = errors.New("session identity required")
	// ErrStoreClosed is returned when mutating a closed store.
	ErrStoreClosed = errors.New("session store closed")
	// ErrEngineNotReady is returned when an Engine method is called on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid gate configuration")
	// ErrNavigatorRequired is returned by Build when no navigator was supplied.
	ErrNavigatorRequired = errors.New("navigator required")

	// ErrInvalidCredentials marks a login rejected by the backend.
	ErrInvalidCredentials = api.ErrInvalidCredentials
	// ErrLoginUnavailable marks a login that failed for transport or server reasons.
	ErrLoginUnavailable = api.ErrUnavailable
	// ErrAuthorizationExpired is reported by API calls that received a 401.
	// The session has already been cleared when a caller sees it.
	ErrAuthorizationExpired = api.ErrUnauthorized
)
