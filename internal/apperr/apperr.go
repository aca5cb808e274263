// Package apperr is the closed set of failures a request can end with.
// Every kind maps to one HTTP status; the wrapped cause is for logs only.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	Unauthorized
	Forbidden
	Validation
	TooLarge
	NotFound
	Conflict
	RateLimited
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case Validation:
		return "validation"
	case TooLarge:
		return "too_large"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case RateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Status is the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Validation:
		return http.StatusBadRequest
	case TooLarge:
		return http.StatusRequestEntityTooLarge
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FieldErrors collects validation messages per input field.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

type Error struct {
	Kind    Kind
	Message string
	Fields  FieldErrors
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap keeps err as the logged cause behind a sanitized message.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Internalf wraps an unexpected failure. The client only sees a generic message.
func Internalf(err error, format string, args ...any) *Error {
	return &Error{Kind: Internal, Message: "Error interno del servidor", Err: fmt.Errorf(format+": %w", append(args, err)...)}
}

// Invalid returns a Validation error carrying per-field messages, or nil when
// fields is empty.
func Invalid(fields FieldErrors) error {
	if len(fields) == 0 {
		return nil
	}
	return &Error{Kind: Validation, Message: "Error de validación", Fields: fields}
}

// KindOf reports the kind of err, Internal for anything not built here.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
