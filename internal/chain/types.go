// Package chain holds the client-side model of escalation chains, their
// scheduled sessions and the messages exchanged in them.
package chain

import (
	"strings"
	"time"
)

// SessionWindow is how long a scheduled session stays startable.
const SessionWindow = 48 * time.Hour

type ChainStatus string

const (
	ChainActive    ChainStatus = "active"
	ChainPending   ChainStatus = "pending"
	ChainEscalated ChainStatus = "escalated"
	ChainCompleted ChainStatus = "completed"
	ChainCancelled ChainStatus = "cancelled"
	ChainUnknown   ChainStatus = "unknown"

	// ChainEnded is set locally when a reply carries ended=true without a
	// chainStatus of its own.
	ChainEnded ChainStatus = "ended"
)

func ParseChainStatus(raw string) ChainStatus {
	switch s := ChainStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case ChainActive, ChainPending, ChainEscalated, ChainCompleted, ChainCancelled, ChainEnded:
		return s
	default:
		return ChainUnknown
	}
}

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
	SessionUnknown   SessionStatus = "unknown"
)

func ParseSessionStatus(raw string) SessionStatus {
	switch s := SessionStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case SessionPending, SessionActive, SessionCompleted, SessionCancelled:
		return s
	default:
		return SessionUnknown
	}
}

// Chain is a support case. SessionIDs is owned by the server and only ever
// grows; the client never edits it.
type Chain struct {
	ID          string      `json:"chain_id"`
	EmployeeID  string      `json:"employee_id"`
	SessionIDs  []string    `json:"session_ids"`
	Status      ChainStatus `json:"status"`
	Context     string      `json:"context,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	EscalatedAt *time.Time  `json:"escalated_at,omitempty"`
	CancelledAt *time.Time  `json:"cancelled_at,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

// Session is one scheduled chat window inside a chain. ChatID keys the
// transcript and differs from ID, which keys the schedule.
type Session struct {
	ID            string        `json:"session_id"`
	ChatID        string        `json:"chat_id"`
	Status        SessionStatus `json:"status"`
	ScheduledAt   time.Time     `json:"scheduled_at"`
	LastMessage   string        `json:"last_message,omitempty"`
	UnreadCount   int           `json:"unread_count"`
	IsEscalated   bool          `json:"is_escalated"`
	TotalMessages int           `json:"total_messages"`
}

// EndsAt is always ScheduledAt plus SessionWindow.
func (s Session) EndsAt() time.Time {
	return s.ScheduledAt.Add(SessionWindow)
}

// SortChainsByCreation orders chains oldest first, keeping the server order
// for equal creation times.
func SortChainsByCreation(chains []Chain) []Chain {
	out := make([]Chain, len(chains))
	copy(out, chains)
	stableSort(out, func(a, b Chain) bool { return a.CreatedAt.Before(b.CreatedAt) })
	return out
}
