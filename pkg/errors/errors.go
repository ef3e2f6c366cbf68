package errors

import (
	"errors"
	"fmt"
)

// Standard error codes shared across packages.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodeInternal         = "INTERNAL"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeAlreadyExists    = "ALREADY_EXISTS"
	CodeTimeout          = "TIMEOUT"
	CodeUnavailable      = "UNAVAILABLE"
)

// AppError is the structured error type used throughout the system. It
// carries a stable Code for programmatic matching, a human Message, and an
// optional wrapped Err for chaining via errors.Is/errors.As.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError with the given code, message, and optional
// wrapped error.
func New(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Wrap annotates err with a message under the INTERNAL code. Use a
// dedicated constructor (NotFound, Conflict, ...) when the error's
// category is known.
func Wrap(err error, message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

// NotFound creates an AppError with CodeNotFound.
func NotFound(message string, err error) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Err: err}
}

// Conflict creates an AppError with CodeConflict.
func Conflict(message string, err error) *AppError {
	return &AppError{Code: CodeConflict, Message: message, Err: err}
}

// InvalidArgument creates an AppError with CodeInvalidArgument.
func InvalidArgument(message string, err error) *AppError {
	return &AppError{Code: CodeInvalidArgument, Message: message, Err: err}
}

// Internal creates an AppError with CodeInternal.
func Internal(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

// Unauthorized creates an AppError with CodeUnauthorized.
func Unauthorized(message string, err error) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message, Err: err}
}

// Forbidden creates an AppError with CodeForbidden.
func Forbidden(message string, err error) *AppError {
	return &AppError{Code: CodeForbidden, Message: message, Err: err}
}

// AlreadyExists creates an AppError with CodeAlreadyExists.
func AlreadyExists(message string, err error) *AppError {
	return &AppError{Code: CodeAlreadyExists, Message: message, Err: err}
}

// Timeout creates an AppError with CodeTimeout.
func Timeout(message string, err error) *AppError {
	return &AppError{Code: CodeTimeout, Message: message, Err: err}
}

// Unavailable creates an AppError with CodeUnavailable.
func Unavailable(message string, err error) *AppError {
	return &AppError{Code: CodeUnavailable, Message: message, Err: err}
}

// Is reports whether err matches target, delegating to the standard
// library so AppError values participate in errors.Is chains.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As delegates to the standard library so callers can recover a typed
// *AppError (or any other wrapped type) from an error chain.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// CodeOf returns the Code of err if it is (or wraps) an *AppError, and
// ok=false otherwise.
func CodeOf(err error) (code string, ok bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}
