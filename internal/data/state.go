package data

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mzansiplatess/plates-cli/internal/output"
)

// Phase is the lifecycle position of a Pool.
type Phase int

const (
	PhaseIdle    Phase = iota // never loaded
	PhaseLoading              // a fetch is in flight
	PhaseSettled              // the last fetch finished, successfully or not
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSettled:
		return "settled"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// UnknownError is shown when a failure carries no usable message.
const UnknownError = "Unknown error"

// LoadState is an immutable view of a Pool.
//
// Data is the result of the last successful fetch, or empty if none has
// succeeded. A failed fetch leaves Data untouched and sets Err. Err is
// cleared by the next successful fetch.
type LoadState[T any] struct {
	Phase     Phase
	Data      []T
	Err       string
	FetchedAt time.Time
	cause     error
}

// Loading reports whether a fetch is in flight.
func (s LoadState[T]) Loading() bool { return s.Phase == PhaseLoading }

// ErrorMessage returns the last failure message, if any.
func (s LoadState[T]) ErrorMessage() (string, bool) { return s.Err, s.Err != "" }

// Failed reports whether the most recent fetch failed.
func (s LoadState[T]) Failed() bool { return s.Err != "" }

// HasData reports whether any fetch has ever succeeded.
func (s LoadState[T]) HasData() bool { return !s.FetchedAt.IsZero() }

// Cause returns the error behind Err, for callers that map errors to
// exit codes. Nil when Err is empty.
func (s LoadState[T]) Cause() error { return s.cause }

func (s LoadState[T]) clone() LoadState[T] {
	s.Data = slices.Clone(s.Data)
	if s.Data == nil {
		s.Data = []T{}
	}
	return s
}

// Describe turns a fetch failure into the message stored in LoadState.Err.
// Structured errors contribute their message without the hint, except
// transport failures, whose hint is the underlying cause. Blank messages
// become UnknownError.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var e *output.Error
	if errors.As(err, &e) {
		msg := strings.TrimSpace(e.Message)
		if cause := strings.TrimSpace(e.Hint); e.Code == output.CodeNetwork && cause != "" {
			if msg == "" {
				return cause
			}
			return msg + ": " + cause
		}
		if msg != "" {
			return msg
		}
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return UnknownError
}

// panicError carries a recovered panic out of a fetch function.
type panicError struct {
	value any
}

func (p panicError) Error() string {
	if err, ok := p.value.(error); ok {
		return err.Error()
	}
	if p.value == nil {
		return ""
	}
	return fmt.Sprint(p.value)
}

func (p panicError) Unwrap() error {
	err, _ := p.value.(error)
	return err
}
