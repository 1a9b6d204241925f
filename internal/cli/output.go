package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for gatectl commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitCommandError = 2
	// ExitAuth means the backend rejected the credentials or session.
	ExitAuth = 3
)

// ExitError carries the process exit code for a command failure.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func wrapExit(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// ExitCode extracts the exit code from err. Errors that are not an
// *ExitError map to ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printer writes either indented JSON or the text form.
type printer struct {
	format string
	w      io.Writer
}

func (p printer) print(v any, text func(w io.Writer)) error {
	if p.format == "json" {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(p.w)
	return nil
}
