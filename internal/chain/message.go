package chain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	SenderBot = "bot"
	SenderHR  = "hr"

	hrPrefix = "HR: "
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	ChatID    string    `json:"chat_id,omitempty"`
}

// RawMessage is a transcript entry as the backend sends it.
type RawMessage struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NormalizeMessage maps a backend entry to a Message. "bot" and "hr" render as
// the assistant, "hr" with a visible marker; every other sender is the user.
// The id combines chat id, sender timestamp and position so entries stay
// unique once sessions are merged.
func NormalizeMessage(chatID string, index int, raw RawMessage) Message {
	role := RoleUser
	content := raw.Text

	switch strings.ToLower(strings.TrimSpace(raw.Sender)) {
	case SenderBot:
		role = RoleAssistant
	case SenderHR:
		role = RoleAssistant
		content = hrPrefix + raw.Text
	}

	return Message{
		ID:        fmt.Sprintf("%s-%s-%d", chatID, raw.Timestamp, index),
		Role:      role,
		Content:   content,
		CreatedAt: ParseTimestamp(raw.Timestamp),
		ChatID:    chatID,
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp accepts RFC 3339 and the offset-less ISO forms the backend
// emits; offset-less values are read as UTC. Unparseable input yields the
// zero time, which sorts first.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// MergeMessages concatenates batches in the given order and sorts the result
// ascending by CreatedAt. Equal timestamps keep their encounter order.
func MergeMessages(batches ...[]Message) []Message {
	total := 0
	for _, b := range batches {
		total += len(b)
	}

	merged := make([]Message, 0, total)
	for _, b := range batches {
		merged = append(merged, b...)
	}

	stableSort(merged, func(a, b Message) bool { return a.CreatedAt.Before(b.CreatedAt) })
	return merged
}

func stableSort[T any](items []T, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}
