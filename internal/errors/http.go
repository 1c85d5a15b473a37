package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is a non-2xx backend answer. It unwraps to the category picked by
// FromStatus so callers can branch with errors.Is.
type HTTPError struct {
	Status   int
	Message  string
	Endpoint string
	category error
}

func (e *HTTPError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Endpoint, e.Message, e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *HTTPError) Unwrap() error {
	return e.category
}

// FromStatus builds an HTTPError for status. An empty message is replaced by a
// generic status-coded one.
func FromStatus(endpoint string, status int, message string) *HTTPError {
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &HTTPError{
		Status:   status,
		Message:  message,
		Endpoint: endpoint,
		category: StatusCategory(status),
	}
}

// StatusCategory maps an HTTP status onto the error taxonomy.
func StatusCategory(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrAuth
	case status == http.StatusForbidden:
		return ErrInvalidCredentials
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 400 && status < 500:
		return ErrValidation
	default:
		return ErrServer
	}
}

// ResetError carries the redirect URL of a forced password reset.
type ResetError struct {
	RedirectURL string
}

func (e *ResetError) Error() string {
	if e.RedirectURL == "" {
		return ErrPasswordReset.Error()
	}
	return fmt.Sprintf("%s: %s", ErrPasswordReset.Error(), e.RedirectURL)
}

func (e *ResetError) Unwrap() error {
	return ErrPasswordReset
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// WithCategory overrides the category picked from the status.
func (e *HTTPError) WithCategory(category error) *HTTPError {
	out := *e
	out.category = category
	return &out
}
