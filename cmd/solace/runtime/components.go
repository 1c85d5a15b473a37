package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/harunnryd/solace/internal/api"
	"github.com/harunnryd/solace/internal/auth"
	"github.com/harunnryd/solace/internal/config"
	"github.com/harunnryd/solace/internal/gateway"
	"github.com/harunnryd/solace/internal/reconciler"
	"github.com/harunnryd/solace/internal/render"
	"github.com/harunnryd/solace/internal/store"
)

// Components is everything a command needs, wired from one config.
type Components struct {
	Ctx        context.Context
	Config     *config.Config
	Store      *store.Store
	Auth       *auth.Client
	Gateway    *gateway.Gateway
	API        *api.Client
	Reconciler *reconciler.Reconciler
	Renderer   *render.Renderer
	Location   *time.Location

	expired atomic.Bool
}

func NewComponents(ctx context.Context, cfg *config.Config) (*Components, error) {
	loc, err := config.OffsetOrDefault(cfg.Schedule.DisplayOffset, config.DefaultScheduleDisplayOffset)
	if err != nil {
		return nil, fmt.Errorf("parse display offset: %w", err)
	}

	lockCfg, err := store.FileLockConfigFrom(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("store lock config: %w", err)
	}
	st, err := store.Open(cfg.Store.Path, lockCfg)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	transportCfg, err := gateway.TransportConfigFrom(cfg.API)
	if err != nil {
		return nil, err
	}
	transport := gateway.NewTransport(transportCfg)
	authClient := auth.NewClient(transport)

	c := &Components{
		Ctx:      ctx,
		Config:   cfg,
		Store:    st,
		Auth:     authClient,
		Renderer: render.New(loc),
		Location: loc,
	}
	c.Gateway = gateway.New(transport, st, authClient, gateway.WithSessionExpired(c.markExpired))
	c.API = api.New(c.Gateway)
	c.Reconciler = reconciler.New(c.API, loc, reconciler.WithFetchLimit(cfg.Chat.FetchLimit))

	slog.Debug("Runtime initialized", "api", cfg.API.URL, "state", st.Path())
	return c, nil
}

// SessionExpired reports whether a token refresh failed since startup.
func (c *Components) SessionExpired() bool {
	return c.expired.Load()
}

func (c *Components) markExpired() {
	if c.expired.CompareAndSwap(false, true) {
		slog.Warn("Session expired, sign in again")
	}
}

// RequireLogin fails fast when no identity is stored.
func (c *Components) RequireLogin() error {
	if !c.Store.IsAuthenticated() {
		return fmt.Errorf("not signed in; run 'solace login' first")
	}
	return nil
}
