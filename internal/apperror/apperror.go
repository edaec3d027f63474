// Package apperror defines the error taxonomy shared by services and handlers.
package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the HTTP boundary
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindBusinessRule
	KindUnauthorized
)

// Error is a classified application error
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages, only for KindValidation
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error kind
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindBusinessRule:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Validation builds a 422 error with per-field messages
func Validation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation Error", Fields: fields}
}

// FieldError builds a 422 error for a single field
func FieldError(field, message string) *Error {
	return Validation(map[string][]string{field: {message}})
}

// NotFound builds a 404 error
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// BusinessRule builds a 400 error
func BusinessRule(message string) *Error {
	return &Error{Kind: KindBusinessRule, Message: message}
}

// Unauthorized builds a 401 error
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Internal wraps an unexpected failure. Message is safe to show to clients.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// As extracts an *Error from err, classifying anything else as internal
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred.", err)
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Merge combines validation errors; nil inputs are skipped
func Merge(errs ...*Error) *Error {
	var merged *Error
	for _, e := range errs {
		if e == nil {
			continue
		}
		if merged == nil {
			merged = Validation(map[string][]string{})
		}
		for field, msgs := range e.Fields {
			merged.Fields[field] = append(merged.Fields[field], msgs...)
		}
	}
	return merged
}
