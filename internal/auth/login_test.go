package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	solaceErrors "github.com/harunnryd/solace/internal/errors"
	"github.com/harunnryd/solace/internal/gateway"
	"github.com/harunnryd/solace/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(gateway.NewTransport(gateway.TransportConfig{BaseURL: srv.URL, Timeout: 2 * time.Second}))
}

func TestLogin_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "E100", creds.EmployeeID)
		assert.Equal(t, "secret", creds.Password)

		w.Write([]byte(`{"access_token":{"access_token":"acc"},"refresh_token":"ref","role":"employee"}`))
	})

	identity, err := client.Login(context.Background(), Credentials{EmployeeID: " E100 ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, store.Identity{EmployeeID: "E100", Role: "employee", AccessToken: "acc", RefreshToken: "ref"}, identity)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.Login(context.Background(), Credentials{EmployeeID: "E100", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, solaceErrors.ErrInvalidCredentials))
	assert.Equal(t, "Invalid employee ID or password.", solaceErrors.UserMessage(err))
}

func TestLogin_PasswordReset(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/reset")
		w.WriteHeader(http.StatusTemporaryRedirect)
		w.Write([]byte(`{"redirect_url":"https://hr.example/reset?token=abc"}`))
	})

	_, err := client.Login(context.Background(), Credentials{EmployeeID: "E100", Password: "old"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, solaceErrors.ErrPasswordReset))

	var resetErr *solaceErrors.ResetError
	require.True(t, errors.As(err, &resetErr))
	assert.Equal(t, "https://hr.example/reset?token=abc", resetErr.RedirectURL)
}

func TestLogin_OtherFailuresAreServerErrors(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		_, err := client.Login(context.Background(), Credentials{EmployeeID: "E100", Password: "x"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, solaceErrors.ErrServer), "status %d", status)
		assert.Equal(t, status, solaceErrors.StatusOf(err))
	}
}

func TestLogin_RejectsEmptyCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.Login(context.Background(), Credentials{EmployeeID: "  ", Password: "x"})
	assert.True(t, errors.Is(err, solaceErrors.ErrInvalidInput))
}

func TestRefresh(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/auth/refresh", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer ref" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"access_token":{"access_token":"new-acc"}}`))
	})

	token, err := client.Refresh(context.Background(), "ref")
	require.NoError(t, err)
	assert.Equal(t, "new-acc", token)

	_, err = client.Refresh(context.Background(), "bogus")
	assert.True(t, errors.Is(err, solaceErrors.ErrAuth))
}

func TestRefresh_EmptyTokenIsServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":{}}`))
	})

	_, err := client.Refresh(context.Background(), "ref")
	assert.True(t, errors.Is(err, solaceErrors.ErrServer))
}

func TestSignInAndSignOut(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":{"access_token":"acc"},"refresh_token":"ref","role":"manager"}`))
	})
	st, err := store.Open(filepath.Join(t.TempDir(), "state.json"), nil)
	require.NoError(t, err)
	require.NoError(t, st.SetChat(store.ChatLinkage{ActiveChatID: "chat-1"}))

	identity, err := SignIn(context.Background(), client, st, Credentials{EmployeeID: "E7", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "manager", identity.Role)
	assert.True(t, st.IsAuthenticated())
	assert.Equal(t, "acc", st.AccessToken())

	require.NoError(t, SignOut(st))
	assert.False(t, st.IsAuthenticated())
	assert.True(t, st.Identity().IsZero())
	assert.Empty(t, st.Chat().ActiveChatID)
}

func TestSignIn_FailureLeavesStoreUntouched(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	st, err := store.Open(filepath.Join(t.TempDir(), "state.json"), nil)
	require.NoError(t, err)

	_, err = SignIn(context.Background(), client, st, Credentials{EmployeeID: "E7", Password: "pw"})
	require.Error(t, err)
	assert.False(t, st.IsAuthenticated())
}
