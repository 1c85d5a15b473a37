package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatusCategories(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusForbidden, ErrInvalidCredentials},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadRequest, ErrValidation},
		{http.StatusUnprocessableEntity, ErrValidation},
		{http.StatusInternalServerError, ErrServer},
		{http.StatusBadGateway, ErrServer},
		{http.StatusTemporaryRedirect, ErrServer},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			err := FromStatus("/x", tt.status, "")
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.status, StatusOf(err))
		})
	}
}

func TestFromStatusMessage(t *testing.T) {
	err := FromStatus("/llm/chat/message", 500, "")
	assert.Equal(t, "request failed with status 500", err.Message)

	err = FromStatus("/llm/chat/message", 422, "message too long")
	assert.Equal(t, "/llm/chat/message: message too long (status 422)", err.Error())
}

func TestResetError(t *testing.T) {
	err := fmt.Errorf("login: %w", &ResetError{RedirectURL: "https://reset.example.com"})

	assert.ErrorIs(t, err, ErrPasswordReset)
	var resetErr *ResetError
	if assert.ErrorAs(t, err, &resetErr) {
		assert.Equal(t, "https://reset.example.com", resetErr.RedirectURL)
	}
	assert.Equal(t, "ErrPasswordReset", Category(err))
}

func TestNetworkKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Network("GET /employee/ping", cause)

	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, cause)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Your session has expired. Please sign in again.", UserMessage(Auth("refresh failed")))
	assert.Equal(t, "message too long", UserMessage(FromStatus("/x", 422, "message too long")))
	assert.Equal(t, "Request cancelled.", UserMessage(context.Canceled))
	assert.Equal(t, "Something went wrong. Please try again.", UserMessage(errors.New("boom")))
}
