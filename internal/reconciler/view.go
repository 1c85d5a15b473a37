package reconciler

import "github.com/harunnryd/solace/internal/chain"

// View is the reconciled state of what the employee is looking at. ReadOnly is
// true unless a scheduled session is active right now.
type View struct {
	Target       chain.Target       `json:"target"`
	ActiveChatID string             `json:"active_chat_id"`
	ChainID      string             `json:"chain_id,omitempty"`
	ReadOnly     bool               `json:"read_only"`
	Status       chain.ChainStatus  `json:"status"`
	Messages     []chain.Message    `json:"messages"`
	Active       *chain.Session     `json:"active,omitempty"`
	Pending      *chain.Session     `json:"pending,omitempty"`
	Window       *chain.Window      `json:"window,omitempty"`
	Availability chain.Availability `json:"availability,omitempty"`
	Chains       []chain.Chain      `json:"chains,omitempty"`
}

// Startable reports whether a pending session can be initiated now.
func (v *View) Startable() bool {
	return v.Pending != nil && v.Availability == chain.AvailabilityOpen
}

// HasSession reports whether any active or scheduled session was found.
func (v *View) HasSession() bool {
	return v.Active != nil || v.Pending != nil
}
