package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harunnryd/solace/internal/chain"
	solaceErrors "github.com/harunnryd/solace/internal/errors"
)

type chainDTO struct {
	ChainID     string   `json:"chain_id"`
	EmployeeID  string   `json:"employee_id"`
	SessionIDs  []string `json:"session_ids"`
	Status      string   `json:"status"`
	Context     string   `json:"context"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	CompletedAt string   `json:"completed_at"`
	EscalatedAt string   `json:"escalated_at"`
	CancelledAt string   `json:"cancelled_at"`
	Notes       string   `json:"notes"`
}

func (d chainDTO) toChain() chain.Chain {
	return chain.Chain{
		ID:          d.ChainID,
		EmployeeID:  d.EmployeeID,
		SessionIDs:  append([]string(nil), d.SessionIDs...),
		Status:      chain.ParseChainStatus(d.Status),
		Context:     d.Context,
		CreatedAt:   chain.ParseTimestamp(d.CreatedAt),
		UpdatedAt:   optionalTime(d.UpdatedAt),
		CompletedAt: optionalTime(d.CompletedAt),
		EscalatedAt: optionalTime(d.EscalatedAt),
		CancelledAt: optionalTime(d.CancelledAt),
		Notes:       d.Notes,
	}
}

type sessionDTO struct {
	SessionID     string `json:"session_id"`
	ChatID        string `json:"chat_id"`
	Status        string `json:"status"`
	ScheduledAt   string `json:"scheduled_at"`
	LastMessage   string `json:"last_message"`
	UnreadCount   int    `json:"unread_count"`
	IsEscalated   bool   `json:"is_escalated"`
	TotalMessages int    `json:"total_messages"`
}

func (d sessionDTO) toSession() chain.Session {
	return chain.Session{
		ID:            d.SessionID,
		ChatID:        d.ChatID,
		Status:        chain.ParseSessionStatus(d.Status),
		ScheduledAt:   chain.ParseTimestamp(d.ScheduledAt),
		LastMessage:   d.LastMessage,
		UnreadCount:   d.UnreadCount,
		IsEscalated:   d.IsEscalated,
		TotalMessages: d.TotalMessages,
	}
}

type chainMessagesDTO struct {
	ChainID  string `json:"chain_id"`
	Sessions []struct {
		SessionID string             `json:"session_id"`
		ChatID    string             `json:"chat_id"`
		Messages  []chain.RawMessage `json:"messages"`
	} `json:"sessions"`
}

type chatToChainDTO struct {
	ChainID string `json:"chain_id"`
}

type sendMessageRequest struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

type initiateChatRequest struct {
	ChatID string `json:"chatId"`
	Status string `json:"status"`
}

// Reply is the backend's answer to a chat message or an initiation. Flags
// are pointers because an absent flag must leave local state untouched.
type Reply struct {
	Message       string `json:"message"`
	ChatID        string `json:"chatId"`
	SessionStatus string `json:"sessionStatus"`
	ChainStatus   string `json:"chainStatus"`
	CanEndChat    *bool  `json:"can_end_chat,omitempty"`
	Ended         *bool  `json:"ended,omitempty"`
}

func optionalTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t := chain.ParseTimestamp(raw)
	if t.IsZero() {
		return nil
	}
	return &t
}

// decodeList accepts either a bare JSON array or an object wrapping the array
// under key.
func decodeList(raw json.RawMessage, key string, out interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '[' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return fmt.Errorf("decode %s: %w", key, solaceErrors.ErrServer)
		}
		inner, ok := wrapper[key]
		if !ok {
			return nil
		}
		trimmed = inner
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, solaceErrors.ErrServer)
	}
	return nil
}
