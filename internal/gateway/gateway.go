package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	solaceErrors "github.com/harunnryd/solace/internal/errors"
)

// Tokens is the slice of the state store the gateway needs.
type Tokens interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(token string) error
	ClearIdentity() error
}

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Gateway wraps backend calls with the employee's bearer token. A 401 triggers
// exactly one refresh; on success the original request is replayed in place,
// on failure the identity is cleared and the session-expired hook fires.
//
// Concurrent 401s each refresh independently; the backend's refresh endpoint
// is idempotent, so redundant refreshes are tolerated rather than coalesced.
type Gateway struct {
	transport *Transport
	tokens    Tokens
	refresher Refresher
	onExpired func()
}

type Option func(*Gateway)

// WithSessionExpired registers the hook run after a failed refresh, typically
// sending the employee back to login.
func WithSessionExpired(fn func()) Option {
	return func(g *Gateway) {
		g.onExpired = fn
	}
}

func New(transport *Transport, tokens Tokens, refresher Refresher, opts ...Option) *Gateway {
	g := &Gateway{
		transport: transport,
		tokens:    tokens,
		refresher: refresher,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Do sends body (JSON-encoded when non-nil) and decodes a 2xx answer into out.
func (g *Gateway) Do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	payload, err := Encode(body)
	if err != nil {
		return err
	}

	resp, err := g.transport.Send(ctx, method, endpoint, payload, g.tokens.AccessToken())
	if err != nil {
		return err
	}

	if resp.Status == http.StatusUnauthorized {
		slog.Info("Access token rejected, refreshing", "endpoint", endpoint)
		if err := g.refresh(ctx); err != nil {
			return err
		}

		// Same method, endpoint and body bytes; only the bearer changes.
		resp, err = g.transport.Send(ctx, method, endpoint, payload, g.tokens.AccessToken())
		if err != nil {
			return err
		}
	}

	if !resp.OK() {
		return solaceErrors.FromStatus(endpoint, resp.Status, resp.ErrorMessage())
	}
	return resp.Decode(out)
}

func (g *Gateway) refresh(ctx context.Context) error {
	refreshToken := g.tokens.RefreshToken()
	if refreshToken == "" || g.refresher == nil {
		return g.expire(solaceErrors.Auth("no refresh token"))
	}

	token, err := g.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		slog.Warn("Token refresh failed", "error", err)
		return g.expire(solaceErrors.Wrap(err, "refresh access token"))
	}
	if token == "" {
		return g.expire(solaceErrors.Auth("refresh returned empty token"))
	}

	if err := g.tokens.SetAccessToken(token); err != nil {
		slog.Error("Failed to persist refreshed token", "error", err)
	}
	return nil
}

func (g *Gateway) expire(cause error) error {
	if err := g.tokens.ClearIdentity(); err != nil {
		slog.Error("Failed to clear identity", "error", err)
	}
	if g.onExpired != nil {
		g.onExpired()
	}
	if errors.Is(cause, solaceErrors.ErrAuth) {
		return cause
	}
	return errors.Join(solaceErrors.ErrAuth, cause)
}
