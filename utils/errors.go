package utils

import (
	"errors"
	"fmt"
)

// Error kinds. Domain packages wrap these so handlers can pick a status code.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// NewError returns an error of the given kind whose message is shown to clients as-is.
func NewError(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...any) error { return NewError(ErrInvalidInput, format, args...) }

func NotFound(format string, args ...any) error { return NewError(ErrNotFound, format, args...) }

func Unauthorized(format string, args ...any) error {
	return NewError(ErrUnauthorized, format, args...)
}

func Conflict(format string, args ...any) error { return NewError(ErrConflict, format, args...) }

// Message returns the client-facing message for err.
func Message(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	return err.Error()
}
