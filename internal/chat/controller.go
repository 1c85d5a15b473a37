// Package chat drives a single chat view: sending messages, starting a
// scheduled session, applying the backend's session flags and keeping the
// liveness ping running while the chat is live.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/harunnryd/solace/internal/api"
	"github.com/harunnryd/solace/internal/chain"
	solaceErrors "github.com/harunnryd/solace/internal/errors"
	"github.com/harunnryd/solace/internal/logger"
	"github.com/harunnryd/solace/internal/reconciler"
	"github.com/harunnryd/solace/internal/store"

	"github.com/oklog/ulid/v2"
)

type State string

const (
	StateReady      State = "ready"
	StateSubmitted  State = "submitted"
	StateStreaming  State = "streaming"
	StateError      State = "error"
	StateInitiating State = "initiating"
)

const (
	noticeSessionEnded = "This session has ended. The chat is now read-only."
	noticeCanEnd       = "You can end this chat whenever you are ready."
)

// Backend is the chat side of the support API.
type Backend interface {
	SendMessage(ctx context.Context, chatID, text string) (*api.Reply, error)
	InitiateChat(ctx context.Context, chatID string) (*api.Reply, error)
	Ping(ctx context.Context) error
}

// LinkageStore persists the chat linkage.
type LinkageStore interface {
	SetChat(link store.ChatLinkage) error
}

type Options struct {
	PingInterval     time.Duration
	EndChatThreshold int
	Notifier         Notifier
	Now              func() time.Time
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	State      State             `json:"state"`
	ChatID     string            `json:"chat_id"`
	ChainID    string            `json:"chain_id,omitempty"`
	Status     chain.ChainStatus `json:"status"`
	ReadOnly   bool              `json:"read_only"`
	CanEndChat bool              `json:"can_end_chat"`
	Ended      bool              `json:"ended"`
	Messages   []chain.Message   `json:"messages"`
	Pending    *chain.Session    `json:"pending,omitempty"`
	Window     *chain.Window     `json:"window,omitempty"`
}

// Controller owns one chat view. All state changes happen under mu; network
// calls run without it so a send never blocks the pinger or another reader.
type Controller struct {
	backend   Backend
	links     LinkageStore
	notifier  Notifier
	pinger    *Pinger
	threshold int
	now       func() time.Time

	mu         sync.Mutex
	state      State
	chatID     string
	chainID    string
	status     chain.ChainStatus
	readOnly   bool
	canEndChat bool
	ended      bool
	messages   []chain.Message
	pending    *chain.Session
	window     *chain.Window
	closed     bool
	ctx        context.Context
}

// NewController binds a controller to a reconciled view. The pinger starts
// right away when the view is live.
func NewController(ctx context.Context, backend Backend, links LinkageStore, view *reconciler.View, opts Options) (*Controller, error) {
	if view == nil {
		return nil, solaceErrors.InvalidInput("view is required")
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.EndChatThreshold <= 0 {
		opts.EndChatThreshold = 10
	}

	pinger, err := NewPinger(backend.Ping, opts.PingInterval)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		backend:   backend,
		links:     links,
		notifier:  opts.Notifier,
		pinger:    pinger,
		threshold: opts.EndChatThreshold,
		now:       opts.Now,
		state:     StateReady,
		chatID:    view.ActiveChatID,
		chainID:   view.ChainID,
		status:    view.Status,
		readOnly:  view.ReadOnly,
		messages:  append([]chain.Message(nil), view.Messages...),
		pending:   view.Pending,
		window:    view.Window,
		ctx:       ctx,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyThresholdLocked()
	c.persistLocked()
	c.syncPingerLocked()
	return c, nil
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:      c.state,
		ChatID:     c.chatID,
		ChainID:    c.chainID,
		Status:     c.status,
		ReadOnly:   c.readOnly,
		CanEndChat: c.canEndChat,
		Ended:      c.ended,
		Messages:   append([]chain.Message(nil), c.messages...),
		Pending:    c.pending,
		Window:     c.window,
	}
}

// PingerRunning reports whether liveness pings are being sent.
func (c *Controller) PingerRunning() bool {
	return c.pinger.Running()
}

// Send submits text to the active chat. The user message is appended before
// the call and stays in the transcript if the call fails.
func (c *Controller) Send(ctx context.Context, text string) (*chain.Message, error) {
	c.mu.Lock()
	if err := c.checkSendableLocked(text); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	chatID := c.chatID
	c.state = StateSubmitted
	c.messages = append(c.messages, chain.Message{
		ID:        ulid.Make().String(),
		Role:      chain.RoleUser,
		Content:   text,
		CreatedAt: c.now(),
		ChatID:    chatID,
	})
	c.applyThresholdLocked()
	c.persistLocked()
	c.mu.Unlock()

	ctx = logger.WithChatID(ctx, chatID)
	reply, err := c.backend.SendMessage(ctx, chatID, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		logger.FromContext(ctx).Debug("Dropping reply for closed chat")
		return nil, solaceErrors.InvalidInput("chat closed")
	}

	if err != nil {
		c.failLocked(ctx, "Send message failed", err)
		return nil, err
	}

	c.state = StateStreaming
	msg := c.appendReplyLocked(chatID, reply.Message)
	c.applyReplyLocked(reply)
	c.state = StateReady
	c.persistLocked()
	c.syncPingerLocked()
	return msg, nil
}

// Initiate starts the pending session once its window is open.
func (c *Controller) Initiate(ctx context.Context) (*chain.Message, error) {
	c.mu.Lock()
	if err := c.checkInitiableLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	chatID := c.pending.ChatID
	c.state = StateInitiating
	c.mu.Unlock()

	ctx = logger.WithChatID(ctx, chatID)
	reply, err := c.backend.InitiateChat(ctx, chatID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, solaceErrors.InvalidInput("chat closed")
	}

	if err != nil {
		c.failLocked(ctx, "Initiate chat failed", err)
		return nil, err
	}

	if reply.ChatID != "" {
		chatID = reply.ChatID
	}
	c.chatID = chatID
	c.status = chain.ChainActive
	c.readOnly = false
	c.ended = false
	c.pending = nil
	c.window = nil

	var msg *chain.Message
	if reply.Message != "" {
		msg = c.appendReplyLocked(chatID, reply.Message)
	}
	c.applyReplyLocked(reply)
	c.state = StateReady
	c.persistLocked()
	c.syncPingerLocked()

	logger.FromContext(ctx).Info("Chat initiated")
	return msg, nil
}

// End closes the chat locally: the view turns read-only and pings stop.
func (c *Controller) End() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return solaceErrors.InvalidInput("chat closed")
	}
	if c.readOnly {
		return solaceErrors.InvalidInput("chat is already read-only")
	}
	if !c.canEndChat {
		return solaceErrors.InvalidInput("this chat cannot be ended yet")
	}

	c.readOnly = true
	c.persistLocked()
	c.syncPingerLocked()
	return nil
}

// Close tears the controller down. Replies still in flight are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.pinger.Stop()
}

func (c *Controller) checkSendableLocked(text string) error {
	switch {
	case c.closed:
		return solaceErrors.InvalidInput("chat closed")
	case strings.TrimSpace(text) == "":
		return solaceErrors.InvalidInput("message is empty")
	case c.readOnly:
		return solaceErrors.InvalidInput("chat is read-only")
	case c.chatID == "":
		return solaceErrors.InvalidInput("no active chat")
	case c.state != StateReady:
		return solaceErrors.InvalidInput(fmt.Sprintf("chat is busy (%s)", c.state))
	}
	return nil
}

func (c *Controller) checkInitiableLocked() error {
	switch {
	case c.closed:
		return solaceErrors.InvalidInput("chat closed")
	case c.pending == nil || c.window == nil:
		return solaceErrors.InvalidInput("no scheduled session to start")
	case c.state != StateReady:
		return solaceErrors.InvalidInput(fmt.Sprintf("chat is busy (%s)", c.state))
	}

	switch c.window.Availability(c.now()) {
	case chain.AvailabilityNotYet:
		return solaceErrors.InvalidInput("session cannot be started yet")
	case chain.AvailabilityExpired:
		return solaceErrors.InvalidInput("session start window has expired")
	}
	return nil
}

func (c *Controller) failLocked(ctx context.Context, msg string, err error) {
	c.state = StateError
	logger.FromContext(ctx).Warn(msg, "error", err)
	c.notifier.Notify(LevelError, solaceErrors.UserMessage(err))
	c.state = StateReady
	c.persistLocked()
}

func (c *Controller) appendReplyLocked(chatID, text string) *chain.Message {
	msg := chain.NormalizeMessage(chatID, len(c.messages), chain.RawMessage{
		Sender:    chain.SenderBot,
		Text:      text,
		Timestamp: c.now().UTC().Format(time.RFC3339Nano),
	})
	c.messages = append(c.messages, msg)
	return &msg
}

// applyReplyLocked applies each flag on its own; absent flags change nothing.
func (c *Controller) applyReplyLocked(reply *api.Reply) {
	if reply.ChainStatus != "" {
		c.status = chain.ParseChainStatus(reply.ChainStatus)
	}
	if reply.CanEndChat != nil {
		was := c.canEndChat
		c.canEndChat = *reply.CanEndChat
		if c.canEndChat && !was {
			c.notifier.Notify(LevelInfo, noticeCanEnd)
		}
	}
	if reply.Ended != nil && *reply.Ended {
		c.readOnly = true
		if reply.ChainStatus == "" {
			c.status = chain.ChainEnded
		}
		if !c.ended {
			c.ended = true
			c.notifier.Notify(LevelInfo, noticeSessionEnded)
		}
	}
	c.applyThresholdLocked()
}

// applyThresholdLocked forces CanEndChat once the employee has sent enough
// messages in the active chat, whatever the backend says.
func (c *Controller) applyThresholdLocked() {
	if c.canEndChat || c.chatID == "" {
		return
	}
	count := 0
	for _, m := range c.messages {
		if m.Role == chain.RoleUser && m.ChatID == c.chatID {
			count++
		}
	}
	if count >= c.threshold {
		c.canEndChat = true
	}
}

func (c *Controller) persistLocked() {
	link := store.ChatLinkage{
		ActiveChatID: c.chatID,
		Status:       string(c.status),
		Messages:     c.messages,
	}
	if err := c.links.SetChat(link); err != nil {
		logger.FromContext(c.ctx).Error("Failed to persist chat linkage", "error", err)
	}
}

// syncPingerLocked keeps the pinger running exactly while the chat is live.
func (c *Controller) syncPingerLocked() {
	if !c.closed && !c.readOnly && c.chatID != "" {
		c.pinger.Start(c.ctx)
		return
	}
	c.pinger.Stop()
}
