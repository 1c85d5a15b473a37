package errors

import (
	"errors"
)

// Sentinel errors for the categories surfaced to the user.
var (
	// ErrAuth - session expired or refresh failed (sign in again)
	ErrAuth = errors.New("authentication required")

	// ErrInvalidCredentials - login rejected with 403
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPasswordReset - login answered 307, password must be reset first
	ErrPasswordReset = errors.New("password reset required")

	// ErrValidation - malformed submission (4xx other than 401/403)
	ErrValidation = errors.New("validation failed")

	// ErrServer - 5xx or any unexpected non-2xx status
	ErrServer = errors.New("server error")

	// ErrNetwork - transport failure or timeout before a status was received
	ErrNetwork = errors.New("network error")

	// ErrNotFound - resource not found locally or remotely
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput - rejected before any request was made
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal - bug or unexpected local state
	ErrInternal = errors.New("internal error")
)
