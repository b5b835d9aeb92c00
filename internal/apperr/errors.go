// Package apperr provides structured errors with a machine-checkable kind.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for callers.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindInsufficientBalance Kind = "insufficient_balance"
	KindNotFound            Kind = "not_found"
	KindState               Kind = "state"
	KindConflict            Kind = "conflict"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindRateLimited         Kind = "rate_limited"
	KindInternal            Kind = "internal"
)

// Code is a machine-readable error code, e.g. "TRANSFER_SELF".
type Code string

// Error is a domain error with a kind, a code and a human-readable message.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
}

// New creates a domain error.
func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus maps the kind to an HTTP status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInsufficientBalance:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindState:
		return http.StatusUnprocessableEntity
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// CodeOf returns the code of err, or "INTERNAL" for foreign errors.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return "INTERNAL"
}
