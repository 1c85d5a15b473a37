// Package dashboard serves a small read-only JSON view of the signed-in
// employee's chains and chat state.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/harunnryd/solace/internal/chain"
	"github.com/harunnryd/solace/internal/concurrency"
	"github.com/harunnryd/solace/internal/config"
	"github.com/harunnryd/solace/internal/reconciler"
	"github.com/harunnryd/solace/internal/store"
)

type IdentitySource interface {
	Identity() store.Identity
	IsAuthenticated() bool
}

type ChainLister interface {
	ListChains(ctx context.Context) ([]chain.Chain, error)
}

type Viewer interface {
	Reconcile(ctx context.Context, target chain.Target) *reconciler.View
}

type Deps struct {
	Identity IdentitySource
	Chains   ChainLister
	Viewer   Viewer
}

type Server struct {
	addr        string
	server      *http.Server
	shutdownTTL time.Duration

	mu       sync.Mutex
	listener net.Listener
	started  bool
}

func New(cfg config.DashboardConfig, deps Deps) (*Server, error) {
	if deps.Identity == nil || deps.Chains == nil || deps.Viewer == nil {
		return nil, fmt.Errorf("dashboard: identity, chains and viewer are required")
	}

	readTimeout, err := config.DurationOrDefault(cfg.ReadTimeout, config.DefaultDashboardReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse dashboard read timeout: %w", err)
	}
	shutdownTimeout, err := config.DurationOrDefault(cfg.ShutdownTimeout, config.DefaultDashboardShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse dashboard shutdown timeout: %w", err)
	}

	addr := cfg.Addr
	if addr == "" {
		addr = config.DefaultDashboardAddr
	}

	return &Server{
		addr: addr,
		server: &http.Server{
			Handler:     newRouter(deps),
			ReadTimeout: readTimeout,
		},
		shutdownTTL: shutdownTimeout,
	}, nil
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr is the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("dashboard: listen %s: %w", s.addr, err)
	}
	s.listener = ln
	s.started = true

	concurrency.SafeGo("dashboard", func() {
		slog.Info("Dashboard listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Dashboard server failed", "error", err)
		}
	}, nil)
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTTL)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Dashboard shutdown error", "error", err)
		return err
	}
	s.started = false
	slog.Info("Dashboard stopped")
	return nil
}
