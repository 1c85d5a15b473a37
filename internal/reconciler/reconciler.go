// Package reconciler builds the chat view for a target by combining the
// chain transcripts with the employee's scheduled sessions.
package reconciler

import (
	"context"
	"time"

	"github.com/harunnryd/solace/internal/api"
	"github.com/harunnryd/solace/internal/chain"
	"github.com/harunnryd/solace/internal/logger"

	"golang.org/x/sync/errgroup"
)

const defaultFetchLimit = 4

// Source is the subset of the backend the reconciler reads.
type Source interface {
	ListChains(ctx context.Context) ([]chain.Chain, error)
	ChainMessages(ctx context.Context, chainID string) (*api.Transcript, error)
	ScheduledSessions(ctx context.Context) ([]chain.Session, error)
	ChatToChain(ctx context.Context, chatID string) (string, error)
}

type Reconciler struct {
	source     Source
	loc        *time.Location
	now        func() time.Time
	fetchLimit int
}

type Option func(*Reconciler)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithFetchLimit bounds how many chain transcripts load in parallel when no
// target is given.
func WithFetchLimit(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.fetchLimit = n
		}
	}
}

// New returns a Reconciler rendering session windows in loc.
func New(source Source, loc *time.Location, opts ...Option) *Reconciler {
	if loc == nil {
		loc = time.UTC
	}
	r := &Reconciler{
		source:     source,
		loc:        loc,
		now:        time.Now,
		fetchLimit: defaultFetchLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile never fails: every backend error degrades to an empty piece of
// the view and is logged.
func (r *Reconciler) Reconcile(ctx context.Context, target chain.Target) *View {
	view := &View{Target: target, ReadOnly: true, Status: chain.ChainUnknown}

	var messages []chain.Message
	switch target.Kind {
	case chain.TargetChain:
		view.ChainID = target.ID
		transcript := r.transcript(ctx, target.ID)
		if len(transcript.ChatIDs) > 0 {
			view.ActiveChatID = transcript.ChatIDs[0]
		}
		messages = transcript.Messages

	case chain.TargetChat:
		view.ActiveChatID = target.ID
		view.ChainID = r.chainOf(ctx, target.ID)
		messages = r.transcript(ctx, view.ChainID).Messages

	default:
		view.Chains, messages = r.allChains(ctx)
	}

	view.Messages = chain.MergeMessages(messages)
	r.resolveSessions(ctx, view)
	return view
}

func (r *Reconciler) chainOf(ctx context.Context, chatID string) string {
	chainID, err := r.source.ChatToChain(ctx, chatID)
	if err != nil {
		logger.FromContext(ctx).Warn("Chat to chain lookup failed, using chat id", "chat_id", chatID, "error", err)
		return chatID
	}
	return chainID
}

func (r *Reconciler) transcript(ctx context.Context, chainID string) *api.Transcript {
	t, err := r.source.ChainMessages(ctx, chainID)
	if err != nil || t == nil {
		logger.FromContext(ctx).Warn("Chain messages unavailable", "chain_id", chainID, "error", err)
		return &api.Transcript{ChainID: chainID}
	}
	return t
}

// allChains loads every chain, oldest first, and concatenates their
// transcripts in that order. Transcripts load in parallel but land in their
// chain's slot so the result does not depend on completion order.
func (r *Reconciler) allChains(ctx context.Context) ([]chain.Chain, []chain.Message) {
	chains, err := r.source.ListChains(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("Chain list unavailable", "error", err)
		return nil, nil
	}
	chains = chain.SortChainsByCreation(chains)

	batches := make([][]chain.Message, len(chains))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.fetchLimit)
	for i, c := range chains {
		g.Go(func() error {
			batches[i] = r.transcript(gctx, c.ID).Messages
			return nil
		})
	}
	_ = g.Wait()

	var messages []chain.Message
	for _, b := range batches {
		messages = append(messages, b...)
	}
	return chains, messages
}

// resolveSessions picks the session the view is bound to. An active session
// wins over any pending one and takes over the active chat id, so sends and
// pings reach the live chat rather than an earlier session of the chain. A
// pending one keeps the view read-only and exposes its start window.
func (r *Reconciler) resolveSessions(ctx context.Context, view *View) {
	sessions, err := r.source.ScheduledSessions(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("Scheduled sessions unavailable", "error", err)
		sessions = nil
	}

	var active, pending *chain.Session
	for i := range sessions {
		s := sessions[i]
		switch s.Status {
		case chain.SessionActive:
			if active == nil {
				active = &s
			}
		case chain.SessionPending:
			if pending == nil {
				pending = &s
			}
		}
	}

	switch {
	case active != nil:
		view.Active = active
		view.ReadOnly = false
		view.Status = chain.ChainActive
		if active.ChatID != "" {
			view.ActiveChatID = active.ChatID
		}

	case pending != nil:
		window := chain.StartWindow(pending.ScheduledAt, r.loc)
		view.Pending = pending
		view.ReadOnly = true
		view.Status = chain.ChainPending
		view.Window = &window
		view.Availability = window.Availability(r.now())

	default:
		view.ReadOnly = true
		view.Status = r.chainStatus(view)
	}
}

func (r *Reconciler) chainStatus(view *View) chain.ChainStatus {
	for _, c := range view.Chains {
		if c.ID == view.ChainID {
			return c.Status
		}
	}
	return chain.ChainUnknown
}
