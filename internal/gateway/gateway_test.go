package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	solaceErrors "github.com/harunnryd/solace/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTokens struct {
	mu      sync.Mutex
	access  string
	refresh string
	cleared bool
}

func (m *memTokens) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access
}

func (m *memTokens) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh
}

func (m *memTokens) SetAccessToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = token
	return nil
}

func (m *memTokens) ClearIdentity() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh, m.cleared = "", "", true
	return nil
}

type stubRefresher struct {
	calls int32
	token string
	err   error
}

func (s *stubRefresher) Refresh(ctx context.Context, refreshToken string) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.token, s.err
}

func newTestGateway(t *testing.T, handler http.HandlerFunc, tokens *memTokens, refresher Refresher, opts ...Option) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	transport := NewTransport(TransportConfig{BaseURL: srv.URL + "/", Timeout: 2 * time.Second})
	return New(transport, tokens, refresher, opts...)
}

func TestGateway_SendsBearerAndDecodes(t *testing.T) {
	tokens := &memTokens{access: "tok-1", refresh: "ref-1"}
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/employee/ping", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"status":"ok"}`))
	}, tokens, &stubRefresher{})

	var out map[string]string
	require.NoError(t, gw.Do(context.Background(), http.MethodGet, "/employee/ping", nil, &out))
	assert.Equal(t, "ok", out["status"])
}

func TestGateway_RefreshesAndRetriesInPlace(t *testing.T) {
	tokens := &memTokens{access: "stale", refresh: "ref-1"}
	refresher := &stubRefresher{token: "fresh"}

	var calls int32
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"chatId":"c1","message":"hi"}`, string(body))
		assert.Equal(t, http.MethodPost, r.Method)
		if n == 1 {
			assert.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		w.Write([]byte(`{"message":"hello"}`))
	}, tokens, refresher)

	var out struct {
		Message string `json:"message"`
	}
	err := gw.Do(context.Background(), http.MethodPost, "/llm/chat/message", map[string]string{"chatId": "c1", "message": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Message)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&refresher.calls))
	assert.Equal(t, "fresh", tokens.AccessToken())
}

func TestGateway_NoSecondRefreshWhenRetryFails(t *testing.T) {
	tokens := &memTokens{access: "stale", refresh: "ref-1"}
	refresher := &stubRefresher{token: "fresh"}

	var calls int32
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}, tokens, refresher)

	err := gw.Do(context.Background(), http.MethodGet, "/employee/chains", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, solaceErrors.ErrAuth))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&refresher.calls))
	assert.False(t, tokens.cleared)
}

func TestGateway_RetryServerErrorIsNotRefreshed(t *testing.T) {
	tokens := &memTokens{access: "stale", refresh: "ref-1"}
	refresher := &stubRefresher{token: "fresh"}

	var calls int32
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	}, tokens, refresher)

	err := gw.Do(context.Background(), http.MethodGet, "/employee/chains", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, solaceErrors.ErrServer))
	assert.Equal(t, http.StatusInternalServerError, solaceErrors.StatusOf(err))
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, int32(1), atomic.LoadInt32(&refresher.calls))
}

func TestGateway_RefreshFailureExpiresSession(t *testing.T) {
	tokens := &memTokens{access: "stale", refresh: "ref-1"}
	refresher := &stubRefresher{err: solaceErrors.FromStatus("/auth/refresh", http.StatusUnauthorized, "")}

	expired := 0
	var calls int32
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}, tokens, refresher, WithSessionExpired(func() { expired++ }))

	err := gw.Do(context.Background(), http.MethodGet, "/employee/chains", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, solaceErrors.ErrAuth))
	assert.True(t, tokens.cleared)
	assert.Equal(t, 1, expired)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGateway_MissingRefreshTokenExpires(t *testing.T) {
	tokens := &memTokens{access: "stale"}
	refresher := &stubRefresher{token: "fresh"}

	expired := false
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, tokens, refresher, WithSessionExpired(func() { expired = true }))

	err := gw.Do(context.Background(), http.MethodGet, "/employee/chains", nil, nil)
	assert.True(t, errors.Is(err, solaceErrors.ErrAuth))
	assert.True(t, expired)
	assert.Equal(t, int32(0), atomic.LoadInt32(&refresher.calls))
}

func TestGateway_StatusMapping(t *testing.T) {
	cases := []struct {
		status   int
		category error
	}{
		{http.StatusBadRequest, solaceErrors.ErrValidation},
		{http.StatusUnprocessableEntity, solaceErrors.ErrValidation},
		{http.StatusNotFound, solaceErrors.ErrNotFound},
		{http.StatusBadGateway, solaceErrors.ErrServer},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(map[string]string{"message": "nope"})
			}, &memTokens{access: "tok"}, &stubRefresher{})

			err := gw.Do(context.Background(), http.MethodGet, "/employee/chains", nil, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.category))
			assert.Equal(t, tc.status, solaceErrors.StatusOf(err))
		})
	}
}

func TestGateway_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	gw := New(NewTransport(TransportConfig{BaseURL: url, Timeout: time.Second}), &memTokens{access: "tok"}, &stubRefresher{})
	err := gw.Do(context.Background(), http.MethodGet, "/employee/ping", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, solaceErrors.ErrNetwork))
}

func TestTransport_DoesNotFollowRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/elsewhere")
		w.WriteHeader(http.StatusTemporaryRedirect)
		w.Write([]byte(`{"redirect_url":"https://reset.example"}`))
	}))
	defer srv.Close()

	transport := NewTransport(TransportConfig{BaseURL: srv.URL})
	resp, err := transport.Send(context.Background(), http.MethodPost, "/auth/login", []byte(`{}`), "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.Status)
	assert.False(t, resp.OK())
}

func TestResponse_ErrorMessage(t *testing.T) {
	assert.Equal(t, "m", (&Response{Body: []byte(`{"message":"m","detail":"d"}`)}).ErrorMessage())
	assert.Equal(t, "d", (&Response{Body: []byte(`{"detail":"d"}`)}).ErrorMessage())
	assert.Equal(t, "e", (&Response{Body: []byte(`{"error":"e"}`)}).ErrorMessage())
	assert.Equal(t, "", (&Response{Body: []byte(`{"detail":[{"loc":"x"}]}`)}).ErrorMessage())
	assert.Equal(t, "", (&Response{Body: []byte(`not json`)}).ErrorMessage())
}
