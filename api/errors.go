package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches an *Error with status 401.
	ErrUnauthorized = errors.New("authorization expired")
	// ErrInvalidCredentials matches a login refused by the backend.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnavailable matches a login that could not reach a usable backend.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrInvalidResponse is returned when a 2xx body cannot be decoded.
	ErrInvalidResponse = errors.New("invalid backend response")
)

// Error is a non-2xx backend response.
type Error struct {
	Status    int
	Message   string
	RequestID string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Is reports ErrUnauthorized for 401 responses.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// LoginReason classifies a failed login.
type LoginReason uint8

const (
	ReasonInvalidCredentials LoginReason = iota + 1
	ReasonUnavailable
)

func (r LoginReason) String() string {
	switch r {
	case ReasonInvalidCredentials:
		return "invalid_credentials"
	case ReasonUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// LoginError is returned by [Client.Login].
type LoginError struct {
	Reason LoginReason
	Err    error
}

func (e *LoginError) Error() string {
	if e.Err == nil {
		return "login failed: " + e.Reason.String()
	}
	return "login failed: " + e.Reason.String() + ": " + e.Err.Error()
}

func (e *LoginError) Unwrap() []error {
	sentinel := ErrUnavailable
	if e.Reason == ReasonInvalidCredentials {
		sentinel = ErrInvalidCredentials
	}
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}

// classifyLogin maps a login failure to a [LoginError].
func classifyLogin(err error) error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return &LoginError{Reason: ReasonInvalidCredentials, Err: err}
		}
	}
	return &LoginError{Reason: ReasonUnavailable, Err: err}
}
