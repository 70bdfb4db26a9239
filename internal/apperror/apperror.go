// Package apperror defines the domain errors shared by every layer.
//
// Each constructor returns an *AppError wrapping one sentinel, so callers
// branch with errors.Is while handlers read the human-readable Message.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("Validation Error")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrConnection        = errors.New("connection error")
	ErrUploadFailed      = errors.New("upload failed")
	ErrTooManyRequests   = errors.New("too many requests")
)

type AppError struct {
	Err     error  // sentinel
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying infrastructure error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the cause so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned when a request carries no valid admin session.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// IncorrectPassword is the Session Gate's rejection.
func IncorrectPassword() *AppError {
	return &AppError{
		Err:     ErrIncorrectPassword,
		Message: "Incorrect password",
	}
}

// Connection reports that the content store could not be reached or queried.
func Connection(cause error) *AppError {
	return &AppError{
		Err:     ErrConnection,
		Message: "Connection error",
		Cause:   cause,
	}
}

// UploadFailed reports a missing file or a failure at the asset host.
func UploadFailed(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrUploadFailed,
		Message: message,
		Cause:   cause,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Err:     ErrTooManyRequests,
		Message: message,
	}
}
