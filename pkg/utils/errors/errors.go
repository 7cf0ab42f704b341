package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an application error
type ErrorType uint

const (
	// ErrorTypeUnknown is the zero classification
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidArgument marks a rejected input
	ErrorTypeInvalidArgument
	// ErrorTypeNotFound marks a missing symbol, chain or strategy
	ErrorTypeNotFound
	// ErrorTypeNonConvergence marks a numerical search that gave up
	ErrorTypeNonConvergence
	// ErrorTypeInternal marks an unexpected internal failure
	ErrorTypeInternal
)

// AppError is an error with a classification and an optional cause.
// Engine math never produces these for degenerate inputs (it degrades to
// documented defaults); they belong to the service layer.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an unclassified error
func New(message string) error {
	return &AppError{Type: ErrorTypeUnknown, Message: message}
}

// Newf creates an unclassified error from a format string
func Newf(format string, args ...interface{}) error {
	return &AppError{Type: ErrorTypeUnknown, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates an error with a message, preserving its classification
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	wrapped := &AppError{Type: ErrorTypeUnknown, Message: message, Err: err}
	var appErr *AppError
	if errors.As(err, &appErr) {
		wrapped.Type = appErr.Type
	}
	return wrapped
}

// Wrapf annotates an error with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// TypeOf returns the classification of an error
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// InvalidArgument creates an invalid-argument error
func InvalidArgument(message string) error {
	return &AppError{Type: ErrorTypeInvalidArgument, Message: message}
}

// NotFound creates a not-found error
func NotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NonConvergence creates a non-convergence error
func NonConvergence(message string) error {
	return &AppError{Type: ErrorTypeNonConvergence, Message: message}
}

// Internal creates an internal error
func Internal(message string) error {
	return &AppError{Type: ErrorTypeInternal, Message: message}
}
