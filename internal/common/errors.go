// Package common defines shared constants and sentinel errors used across
// the chat assistant server and its operator tooling. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// ErrorInvalidInput is returned by low-level primitives (hasher, token
	// service) when called with empty or too short arguments.
	ErrorInvalidInput = errors.New("invalid input")

	// Auth errors.
	ErrorUnauthenticated    = errors.New("unauthenticated")
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorRateLimited        = errors.New("too many failed login attempts")

	// Completion errors.
	ErrorUpstreamUnavailable = errors.New("upstream unavailable")
	ErrorAPIKeyMissing       = errors.New("API key not configured")
)

// ValidationError carries a user-facing message for a rejected request.
// It matches ErrorValidation via errors.Is.
type ValidationError struct {
	Message string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrorValidation
}

// NotFoundError names what was not found ("Chat not found"). It matches
// ErrorNotFound via errors.Is.
type NotFoundError struct {
	Message string
}

func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{Message: msg}
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Unwrap() error {
	return ErrorNotFound
}
