package errors

import (
	"context"
	"errors"
	"fmt"
)

// Category returns the taxonomy name for err.
func Category(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrAuth):
		return "ErrAuth"
	case errors.Is(err, ErrInvalidCredentials):
		return "ErrInvalidCredentials"
	case errors.Is(err, ErrPasswordReset):
		return "ErrPasswordReset"
	case errors.Is(err, ErrValidation):
		return "ErrValidation"
	case errors.Is(err, ErrServer):
		return "ErrServer"
	case errors.Is(err, ErrNetwork):
		return "ErrNetwork"
	case errors.Is(err, ErrNotFound):
		return "ErrNotFound"
	case errors.Is(err, ErrInvalidInput):
		return "ErrInvalidInput"
	case errors.Is(err, ErrInternal):
		return "ErrInternal"
	default:
		return "Unknown"
	}
}

// UserMessage renders err as the short notice shown to the employee.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var resetErr *ResetError
	var httpErr *HTTPError
	switch {
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.As(err, &resetErr):
		return "Your password must be reset before you can sign in."
	case errors.Is(err, ErrAuth):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid employee ID or password."
	case errors.Is(err, ErrNetwork):
		return "Could not reach the support service. Check your connection and try again."
	case errors.As(err, &httpErr):
		return httpErr.Message
	case errors.Is(err, ErrInvalidInput):
		return err.Error()
	default:
		return "Something went wrong. Please try again."
	}
}

// Wrap wraps an error with context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", message, err)
}

// IsCategory checks if error belongs to specific category
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// Network wraps a transport failure.
func Network(message string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", message, ErrNetwork)
	}
	return fmt.Errorf("%s: %w: %w", message, ErrNetwork, err)
}

// Auth wraps error as authentication required
func Auth(message string) error {
	return fmt.Errorf("%s: %w", message, ErrAuth)
}

// NotFound wraps error as not found
func NotFound(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotFound)
}

// InvalidInput wraps error as invalid input
func InvalidInput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidInput)
}

// Internal wraps error as internal
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}
