package store

import "github.com/harunnryd/solace/internal/chain"

// Identity is who is signed in. It exists from a successful login until logout
// or a failed token refresh.
type Identity struct {
	EmployeeID   string `json:"employee_id"`
	Role         string `json:"role"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (i Identity) IsZero() bool {
	return i == Identity{}
}

// ChatLinkage is the minimal chat state that must survive a restart.
type ChatLinkage struct {
	ActiveChatID string          `json:"active_chat_id"`
	Status       string          `json:"status"`
	Messages     []chain.Message `json:"messages"`
}

func (c ChatLinkage) clone() ChatLinkage {
	out := c
	if c.Messages != nil {
		out.Messages = make([]chain.Message, len(c.Messages))
		copy(out.Messages, c.Messages)
	}
	return out
}

// State is a point-in-time copy of everything the store holds.
type State struct {
	Identity        Identity    `json:"identity"`
	IsAuthenticated bool        `json:"is_authenticated"`
	Chat            ChatLinkage `json:"chat"`
}

// persistedState is the on-disk layout of state.json.
type persistedState struct {
	Identity        *Identity    `json:"identity,omitempty"`
	IsAuthenticated bool         `json:"is_authenticated"`
	Chat            *ChatLinkage `json:"chat,omitempty"`
}
