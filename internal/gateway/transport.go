package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/harunnryd/solace/internal/config"
	solaceErrors "github.com/harunnryd/solace/internal/errors"
)

const maxResponseBytes = 8 << 20

type TransportConfig struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// TransportConfigFrom resolves the api section of the config.
func TransportConfigFrom(cfg config.APIConfig) (TransportConfig, error) {
	timeout, err := config.DurationOrDefault(cfg.Timeout, config.DefaultAPITimeout)
	if err != nil {
		return TransportConfig{}, fmt.Errorf("parse api timeout: %w", err)
	}
	return TransportConfig{
		BaseURL:   cfg.URL,
		Timeout:   timeout,
		UserAgent: cfg.UserAgent,
	}, nil
}

// Transport sends JSON requests to the backend. It knows nothing about
// tokens beyond the bearer it is handed and never follows redirects, so a
// 307 from /auth/login reaches the caller.
type Transport struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

type Response struct {
	Status int
	Body   []byte
}

func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the body into out. An empty body leaves out untouched.
func (r *Response) Decode(out interface{}) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", solaceErrors.ErrServer)
	}
	return nil
}

// ErrorMessage extracts the server-provided message, if any.
func (r *Response) ErrorMessage() string {
	var payload map[string]interface{}
	if err := json.Unmarshal(r.Body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"message", "detail", "error"} {
		if v, ok := payload[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func NewTransport(cfg TransportConfig) *Transport {
	if cfg.Timeout <= 0 {
		d, err := config.DurationOrDefault("", config.DefaultAPITimeout)
		if err == nil {
			cfg.Timeout = d
		}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = config.DefaultAPIUserAgent
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	noRedirect := *client
	noRedirect.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Transport{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    &noRedirect,
	}
}

// Send issues one request. payload is the already-encoded JSON body (nil for
// none). Transport failures wrap ErrNetwork; any status is returned as-is.
func (t *Transport) Send(ctx context.Context, method, endpoint string, payload []byte, bearer string) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+endpoint, body)
	if err != nil {
		return nil, solaceErrors.Internal(fmt.Sprintf("build request %s %s: %v", method, endpoint, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, solaceErrors.Network(method+" "+endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, solaceErrors.Network("read "+endpoint, err)
	}

	slog.Debug("Backend call",
		"method", method,
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	return &Response{Status: resp.StatusCode, Body: raw}, nil
}

// Encode marshals body for Send; nil stays nil.
func Encode(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, solaceErrors.InvalidInput(fmt.Sprintf("encode request body: %v", err))
	}
	return payload, nil
}
