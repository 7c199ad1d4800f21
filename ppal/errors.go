package ppal

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failed tool invocation.
type Kind string

const (
	// KindConnection is returned when the server cannot be reached or does
	// not answer in time.
	KindConnection Kind = "CONNECTION_FAILURE"
	// KindProtocol is returned when the server answers with something that
	// is not a usable tools/call response.
	KindProtocol Kind = "PROTOCOL_ERROR"
	// KindNotFound is returned when the server reports that the requested
	// track or clip does not exist.
	KindNotFound Kind = "NOT_FOUND"
	// KindValidation is returned when a payload or a caller-supplied note
	// violates the data model.
	KindValidation Kind = "VALIDATION_FAILURE"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrConnection = errors.New("ppal: connection failure")
	ErrProtocol   = errors.New("ppal: protocol error")
	ErrNotFound   = errors.New("ppal: not found")
	ErrValidation = errors.New("ppal: validation failure")
)

// Error is the single error type returned by Client operations.
type Error struct {
	Kind    Kind
	Tool    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("ppal: ")
	if e.Tool != "" {
		b.WriteString(e.Tool)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	return target == sentinel(e.Kind)
}

// Retryable reports whether repeating the same call may succeed. Only
// connection failures qualify; the client itself never retries.
func (e *Error) Retryable() bool {
	return e != nil && e.Kind == KindConnection
}

func sentinel(kind Kind) error {
	switch kind {
	case KindConnection:
		return ErrConnection
	case KindProtocol:
		return ErrProtocol
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	default:
		return nil
	}
}

func newError(kind Kind, tool string, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Tool:    tool,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when
// there is none.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) && perr != nil {
		return perr.Kind
	}
	return ""
}

func trimModelPrefix(msg string) string {
	return strings.TrimPrefix(msg, "model: ")
}
