// Package herrors defines the error taxonomy shared across the engine and
// its admin surface. Errors carry a Kind tag so callers can branch on
// category without parsing messages, and a human-readable message with no
// stack trace, per the error-handling design.
package herrors

import (
	"errors"
	"fmt"
)

// Kind is an error category. Compare it with KindOf, or match an error
// against the per-kind sentinels below with errors.Is.
type Kind string

const (
	NotFound           Kind = "not_found"
	Duplicate          Kind = "duplicate"
	InvalidInput       Kind = "invalid_input"
	InUse              Kind = "in_use"
	BackendUnavailable Kind = "backend_unavailable"
	Unauthorized       Kind = "unauthorized"
)

// Error is the engine's error type. Path is set for validation failures
// that can point at a specific field.
type Error struct {
	Kind Kind
	Msg  string
	Path string
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Msg, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is lets errors.Is(err, herrors.ErrNotFound) work by comparing Kind
// against a sentinel *Error carrying only that Kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func WithPath(kind Kind, path, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Path: path}
}

// sentinels for errors.Is matching, e.g. errors.Is(err, herrors.ErrNotFound).
var (
	ErrNotFound           = &Error{Kind: NotFound}
	ErrDuplicate          = &Error{Kind: Duplicate}
	ErrInvalidInput       = &Error{Kind: InvalidInput}
	ErrInUse              = &Error{Kind: InUse}
	ErrBackendUnavailable = &Error{Kind: BackendUnavailable}
	ErrUnauthorized       = &Error{Kind: Unauthorized}
)

// KindOf extracts the Kind of err, or "" if err is not (or does not wrap)
// an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
