// Package apperr defines the error type shared by the service and API layers.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an Error. The set is closed.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "unauthorized"
	default:
		return "internal"
	}
}

// HTTPStatus returns the response status code for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Message is safe to show to callers;
// Err is the underlying cause and is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports a malformed or missing request field.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// InvalidField reports a validation failure tied to one request field.
func InvalidField(field, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

// NotFound reports an absent entity, or one owned by another account.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict reports a duplicate unique key.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Unauthorized reports a missing, invalid or expired credential.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: cause}
}

// KindOf returns the kind of err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// FieldOf returns the request field a validation error refers to, or "".
func FieldOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind == KindValidation {
		return appErr.Field
	}
	return ""
}

// PublicMessage returns the message that may be sent to a caller.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "internal server error"
}
