package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind tags the failure classes the core can produce
type ErrorKind string

const (
	ErrValidation       ErrorKind = "validation"
	ErrPoolExhausted    ErrorKind = "pool_exhausted"
	ErrRequestTimeout   ErrorKind = "request_timeout"
	ErrRequestExecution ErrorKind = "request_execution"
	ErrCircuitOpen      ErrorKind = "circuit_open"
	ErrNotFound         ErrorKind = "not_found"
)

// Error is the structured error type used across the core. It carries the
// operation that failed and enough context to diagnose it without parsing
// the message text.
type Error struct {
	Kind      ErrorKind
	Op        string        // e.g. "pool.Acquire", "executor.ExecuteBatch"
	Service   string        // remote service involved, if any
	Operation string        // remote operation involved, if any
	Timeout   time.Duration // populated for ErrRequestTimeout
	Err       error         // wrapped cause, if any
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Service != "" {
		msg += fmt.Sprintf(" (service=%s", e.Service)
		if e.Operation != "" {
			msg += fmt.Sprintf(", operation=%s", e.Operation)
		}
		msg += ")"
	}
	if e.Timeout > 0 {
		msg += fmt.Sprintf(" after %s", e.Timeout)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on the kind via the sentinel helpers below
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks. These carry only the kind.
var (
	ErrKindValidation       = &Error{Kind: ErrValidation}
	ErrKindPoolExhausted    = &Error{Kind: ErrPoolExhausted}
	ErrKindRequestTimeout   = &Error{Kind: ErrRequestTimeout}
	ErrKindRequestExecution = &Error{Kind: ErrRequestExecution}
	ErrKindCircuitOpen      = &Error{Kind: ErrCircuitOpen}
	ErrKindNotFound         = &Error{Kind: ErrNotFound}
)

// IsKind reports whether err (or anything it wraps) is a core Error of the
// given kind
func IsKind(err error, kind ErrorKind) bool {
	var ce *Error
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Kind == kind
}
