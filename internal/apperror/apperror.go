// Package apperror defines the error taxonomy shared by every layer.
//
// Each AppError wraps one of the sentinel kinds below. Services return them,
// handlers map the kind to an HTTP status with errors.Is, and the Message is
// safe to show to the user as-is.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // sentinel kind
	Code    string // machine-readable reason, e.g. "team_full"
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same non-empty Code.
// Two messages for the same failure therefore match each other under
// errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code != "" && t.Code == e.Code
}

// New builds an AppError of the given kind with a stable code.
func New(kind error, code, message string) *AppError {
	return &AppError{
		Err:     kind,
		Code:    code,
		Message: message,
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Code:    "not_found",
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    "validation_error",
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    "conflict",
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Code:    "forbidden",
		Message: message,
	}
}

// Unauthorized means there is no valid session at all (401), as opposed to
// Forbidden where the caller is known but lacks the privilege.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Code:    "unauthorized",
		Message: message,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
