package output

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a structured error with code, message, and optional hint.
type Error struct {
	Code       string
	Message    string
	Hint       string
	HTTPStatus int
	Retryable  bool
	Cause      error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Hint)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	return ExitCodeFor(e.Code)
}

func ErrUsage(msg string) *Error {
	return &Error{Code: CodeUsage, Message: msg}
}

func ErrUsageHint(msg, hint string) *Error {
	return &Error{Code: CodeUsage, Message: msg, Hint: hint}
}

func ErrNotFound(resource, identifier string) *Error {
	return &Error{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found: %s", resource, identifier),
		HTTPStatus: http.StatusNotFound,
	}
}

func ErrAuth(msg string) *Error {
	return &Error{
		Code:       CodeAuth,
		Message:    msg,
		Hint:       "Run: plates auth login",
		HTTPStatus: http.StatusUnauthorized,
	}
}

func ErrForbidden(msg string) *Error {
	return &Error{
		Code:       CodeForbidden,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

func ErrRateLimit(retryAfter int) *Error {
	hint := "Try again later"
	if retryAfter > 0 {
		hint = fmt.Sprintf("Try again in %d seconds", retryAfter)
	}
	return &Error{
		Code:       CodeRateLimit,
		Message:    "Rate limited",
		Hint:       hint,
		HTTPStatus: http.StatusTooManyRequests,
		Retryable:  true,
	}
}

// ErrNetwork wraps a transport failure. The cause text becomes the hint so
// the message itself stays generic.
func ErrNetwork(cause error) *Error {
	e := &Error{
		Code:      CodeNetwork,
		Message:   "Network error",
		Retryable: true,
		Cause:     cause,
	}
	if cause != nil {
		e.Hint = cause.Error()
	}
	return e
}

func ErrAPI(status int, msg string) *Error {
	return &Error{
		Code:       CodeAPI,
		Message:    msg,
		HTTPStatus: status,
	}
}

// ErrMalformed reports a 2xx response whose body could not be decoded.
func ErrMalformed(cause error) *Error {
	return &Error{
		Code:    CodeAPI,
		Message: "Malformed response",
		Hint:    cause.Error(),
		Cause:   cause,
	}
}

// ErrStorage wraps a local file or keyring failure.
func ErrStorage(what string, cause error) *Error {
	return &Error{
		Code:    CodeStorage,
		Message: fmt.Sprintf("Could not access %s", what),
		Hint:    cause.Error(),
		Cause:   cause,
	}
}

// AsError attempts to convert an error to an *Error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Code:    CodeAPI,
		Message: err.Error(),
		Cause:   err,
	}
}
