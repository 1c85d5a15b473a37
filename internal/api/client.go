// Package api wraps the employee and chat endpoints of the support backend.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/harunnryd/solace/internal/chain"
	solaceErrors "github.com/harunnryd/solace/internal/errors"
)

// Doer sends an authenticated request. *gateway.Gateway implements it.
type Doer interface {
	Do(ctx context.Context, method, endpoint string, body, out interface{}) error
}

type Client struct {
	doer Doer
}

func New(doer Doer) *Client {
	return &Client{doer: doer}
}

func (c *Client) ListChains(ctx context.Context) ([]chain.Chain, error) {
	var raw json.RawMessage
	if err := c.doer.Do(ctx, http.MethodGet, "/employee/chains", nil, &raw); err != nil {
		return nil, err
	}

	var dtos []chainDTO
	if err := decodeList(raw, "chains", &dtos); err != nil {
		return nil, err
	}
	chains := make([]chain.Chain, 0, len(dtos))
	for _, d := range dtos {
		chains = append(chains, d.toChain())
	}
	return chains, nil
}

// Transcript is a chain's message history. ChatIDs lists the chat of every
// session in server order; Messages are normalised and tagged with their chat.
type Transcript struct {
	ChainID  string
	ChatIDs  []string
	Messages []chain.Message
}

func (c *Client) ChainMessages(ctx context.Context, chainID string) (*Transcript, error) {
	if strings.TrimSpace(chainID) == "" {
		return nil, solaceErrors.InvalidInput("chain id is required")
	}

	var dto chainMessagesDTO
	endpoint := "/employee/chains/" + url.PathEscape(chainID) + "/messages"
	if err := c.doer.Do(ctx, http.MethodGet, endpoint, nil, &dto); err != nil {
		return nil, err
	}

	out := &Transcript{ChainID: chainID, ChatIDs: make([]string, 0, len(dto.Sessions))}
	for _, session := range dto.Sessions {
		if session.ChatID != "" {
			out.ChatIDs = append(out.ChatIDs, session.ChatID)
		}
		for i, raw := range session.Messages {
			out.Messages = append(out.Messages, chain.NormalizeMessage(session.ChatID, i, raw))
		}
	}
	return out, nil
}

func (c *Client) ScheduledSessions(ctx context.Context) ([]chain.Session, error) {
	var raw json.RawMessage
	if err := c.doer.Do(ctx, http.MethodGet, "/employee/scheduled-sessions", nil, &raw); err != nil {
		return nil, err
	}

	var dtos []sessionDTO
	if err := decodeList(raw, "sessions", &dtos); err != nil {
		return nil, err
	}
	sessions := make([]chain.Session, 0, len(dtos))
	for _, d := range dtos {
		sessions = append(sessions, d.toSession())
	}
	return sessions, nil
}

// ChatToChain resolves the chain a chat belongs to.
func (c *Client) ChatToChain(ctx context.Context, chatID string) (string, error) {
	if strings.TrimSpace(chatID) == "" {
		return "", solaceErrors.InvalidInput("chat id is required")
	}

	var dto chatToChainDTO
	if err := c.doer.Do(ctx, http.MethodGet, "/employee/chat-to-chain/"+url.PathEscape(chatID), nil, &dto); err != nil {
		return "", err
	}
	if dto.ChainID == "" {
		return "", solaceErrors.NotFound("no chain for chat " + chatID)
	}
	return dto.ChainID, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.doer.Do(ctx, http.MethodGet, "/employee/ping", nil, nil)
}

func (c *Client) SendMessage(ctx context.Context, chatID, text string) (*Reply, error) {
	var reply Reply
	req := sendMessageRequest{ChatID: chatID, Message: text}
	if err := c.doer.Do(ctx, http.MethodPost, "/llm/chat/message", req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// InitiateChat opens a scheduled session; the reply carries the opening
// assistant message.
func (c *Client) InitiateChat(ctx context.Context, chatID string) (*Reply, error) {
	var reply Reply
	req := initiateChatRequest{ChatID: chatID, Status: "bot"}
	if err := c.doer.Do(ctx, http.MethodPatch, "/llm/chat/initiate-chat", req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
