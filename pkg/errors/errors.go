package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an application error
type ErrorCode int

const (
	ErrNotFound ErrorCode = iota + 1000
	ErrVerificationRejected
	ErrTransport
	ErrBadRequest
	ErrInternal
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

// NewVerificationRejected builds a domain-level rejection surfaced inline
// in the add-patient form. Recoverable by resubmission.
func NewVerificationRejected(message string) *AppError {
	return &AppError{
		Code:    ErrVerificationRejected,
		Message: message,
	}
}

// NewTransport wraps a network or non-2xx backend failure.
func NewTransport(message string, err error) *AppError {
	return &AppError{
		Code:    ErrTransport,
		Message: message,
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// IsVerificationRejected reports whether err is a domain rejection from the
// patient verification flow.
func IsVerificationRejected(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrVerificationRejected
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrTransport
}
