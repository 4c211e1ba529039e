package domain

import (
	"errors"
	"net/http"
)

// Kind classifies an Error. The API layers map a kind to a transport status.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// HTTPStatus returns the status code used by both API facades for this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidInput:
		return http.StatusUnprocessableEntity
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FieldError describes one failed field check.
type FieldError struct {
	Field   string
	Message string
}

// Error is the single error shape raised by repositories and services.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error of the same kind, so sentinels work with errors.Is
// regardless of the message carried.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrDuplicateEmail  = &Error{Kind: KindConflict, Message: "User exists already!"}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "Not authenticated."}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "Not authorized!"}
	ErrInvalidInput    = &Error{Kind: KindInvalidInput, Message: "Validation failed."}
	ErrRateLimited     = &Error{Kind: KindRateLimited, Message: "Too many requests. Please try again later."}
)

// NotFound returns a not-found error with a caller-facing message.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Invalid returns a validation error carrying every failed field.
func Invalid(fields []FieldError) *Error {
	return &Error{Kind: KindInvalidInput, Message: "Validation failed.", Fields: fields}
}

// KindOf reports the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
