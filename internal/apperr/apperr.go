// Package apperr defines the error kinds surfaced by the reservation engine.
// Every rejection carries exactly one Kind; the HTTP layer maps kinds to
// status codes and never inspects messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindBadRequest
	KindConflict
	KindUnauthorized
	// KindInternal wraps repository or broker faults that are not domain
	// rejections.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

// Error is the single error type returned by the service layer.
type Error struct {
	Kind     Kind
	Resource string            // NotFound: entity name
	Key      string            // NotFound: lookup key
	Reason   string            // human readable message
	Fields   map[string]string // BadRequest: optional field-level detail
	Err      error             // Internal: underlying cause
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindNotFound && e.Reason == "":
		return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
	case e.Err != nil && e.Reason != "":
		return e.Reason + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports a missing referenced entity.
func NotFound(resource, key string) *Error {
	return &Error{Kind: KindNotFound, Resource: resource, Key: key}
}

// BadRequest reports structurally invalid input.
func BadRequest(reason string) *Error {
	return &Error{Kind: KindBadRequest, Reason: reason}
}

// InvalidField reports a BadRequest tied to one input field.
func InvalidField(field, reason string) *Error {
	return &Error{
		Kind:   KindBadRequest,
		Reason: reason,
		Fields: map[string]string{field: reason},
	}
}

// Conflict reports a business-rule violation.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Reason: fmt.Sprintf(format, args...)}
}

// Unauthorized reports an identity or permission violation.
func Unauthorized(reason string) *Error {
	return &Error{Kind: KindUnauthorized, Reason: reason}
}

// Internal wraps an infrastructure failure with a short operation label.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Reason: op, Err: err}
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
