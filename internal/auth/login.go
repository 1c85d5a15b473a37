// Package auth signs employees in and out against the support backend and
// keeps the access token fresh.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	solaceErrors "github.com/harunnryd/solace/internal/errors"
	"github.com/harunnryd/solace/internal/gateway"
	"github.com/harunnryd/solace/internal/store"
)

const (
	loginEndpoint   = "/auth/login"
	refreshEndpoint = "/auth/refresh"
)

type Credentials struct {
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password"`
}

type tokenEnvelope struct {
	AccessToken string `json:"access_token"`
}

type loginResponse struct {
	AccessToken  tokenEnvelope `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	Role         string        `json:"role"`
}

type refreshResponse struct {
	AccessToken tokenEnvelope `json:"access_token"`
}

type resetResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// Client talks to the unauthenticated /auth endpoints. It goes through the
// raw transport, never the gateway, so a failed refresh cannot recurse.
type Client struct {
	transport *gateway.Transport
}

func NewClient(transport *gateway.Transport) *Client {
	return &Client{transport: transport}
}

// Login exchanges credentials for an identity. A 403 maps to
// ErrInvalidCredentials, a 307 to a *ResetError carrying the reset URL and
// any other failure to ErrServer.
func (c *Client) Login(ctx context.Context, creds Credentials) (store.Identity, error) {
	creds.EmployeeID = strings.TrimSpace(creds.EmployeeID)
	if creds.EmployeeID == "" || creds.Password == "" {
		return store.Identity{}, solaceErrors.InvalidInput("employee id and password are required")
	}

	payload, err := gateway.Encode(creds)
	if err != nil {
		return store.Identity{}, err
	}
	resp, err := c.transport.Send(ctx, http.MethodPost, loginEndpoint, payload, "")
	if err != nil {
		return store.Identity{}, err
	}

	switch {
	case resp.Status == http.StatusForbidden:
		return store.Identity{}, solaceErrors.FromStatus(loginEndpoint, resp.Status, "invalid employee id or password")
	case resp.Status == http.StatusTemporaryRedirect:
		var reset resetResponse
		_ = json.Unmarshal(resp.Body, &reset)
		return store.Identity{}, &solaceErrors.ResetError{RedirectURL: reset.RedirectURL}
	case !resp.OK():
		return store.Identity{}, solaceErrors.FromStatus(loginEndpoint, resp.Status, resp.ErrorMessage()).
			WithCategory(solaceErrors.ErrServer)
	}

	var out loginResponse
	if err := resp.Decode(&out); err != nil {
		return store.Identity{}, err
	}
	if out.AccessToken.AccessToken == "" {
		return store.Identity{}, fmt.Errorf("login response without access token: %w", solaceErrors.ErrServer)
	}

	return store.Identity{
		EmployeeID:   creds.EmployeeID,
		Role:         out.Role,
		AccessToken:  out.AccessToken.AccessToken,
		RefreshToken: out.RefreshToken,
	}, nil
}

// Refresh implements gateway.Refresher. The refresh token rides as the bearer.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	resp, err := c.transport.Send(ctx, http.MethodGet, refreshEndpoint, nil, refreshToken)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", solaceErrors.FromStatus(refreshEndpoint, resp.Status, resp.ErrorMessage())
	}

	var out refreshResponse
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	if out.AccessToken.AccessToken == "" {
		return "", fmt.Errorf("refresh response without access token: %w", solaceErrors.ErrServer)
	}
	return out.AccessToken.AccessToken, nil
}

// IdentityStore is the part of the state store the login flow writes.
type IdentityStore interface {
	SetIdentity(identity store.Identity) error
	ClearIdentity() error
	ClearChat() error
}

// SignIn logs in and records the identity.
func SignIn(ctx context.Context, client *Client, st IdentityStore, creds Credentials) (store.Identity, error) {
	identity, err := client.Login(ctx, creds)
	if err != nil {
		return store.Identity{}, err
	}
	if err := st.SetIdentity(identity); err != nil {
		return store.Identity{}, solaceErrors.Wrap(err, "save identity")
	}

	if exp, ok := TokenExpiry(identity.AccessToken); ok {
		slog.Info("Signed in", "employee_id", identity.EmployeeID, "role", identity.Role, "expires", exp)
	} else {
		slog.Info("Signed in", "employee_id", identity.EmployeeID, "role", identity.Role)
	}
	return identity, nil
}

// SignOut forgets the identity and the chat linkage.
func SignOut(st IdentityStore) error {
	if err := st.ClearIdentity(); err != nil {
		return solaceErrors.Wrap(err, "clear identity")
	}
	if err := st.ClearChat(); err != nil {
		return solaceErrors.Wrap(err, "clear chat")
	}
	slog.Info("Signed out")
	return nil
}
