// Package errors defines the sentinel errors shared by the index builder,
// the ranking engine and the service layer, plus an AppError wrapper that
// carries an HTTP status for the search API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidDocument is returned by the index builder for an empty or
	// duplicate document identifier. The whole build is aborted.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrUnknownDocument signals a statistics lookup for a document that was
	// not part of the indexed collection. It is an integration defect.
	ErrUnknownDocument = errors.New("unknown document")
	ErrUnknownField    = errors.New("unknown index field")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInternal        = errors.New("internal error")
	ErrTimeout         = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error chain onto the status the search API answers
// with. An AppError anywhere in the chain wins over the sentinel mapping.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidDocument), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownField):
		return http.StatusNotFound
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
