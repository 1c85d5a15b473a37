package chain

import "strings"

type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetChain
	TargetChat
)

func (k TargetKind) String() string {
	switch k {
	case TargetChain:
		return "chain"
	case TargetChat:
		return "chat"
	default:
		return "none"
	}
}

// Target is what the employee asked to open. The kind is decided once, at the
// edge, so consumers switch on Kind instead of inspecting id prefixes.
type Target struct {
	Kind TargetKind
	ID   string
}

func NoTarget() Target             { return Target{Kind: TargetNone} }
func ChainTarget(id string) Target { return Target{Kind: TargetChain, ID: id} }
func ChatTarget(id string) Target  { return Target{Kind: TargetChat, ID: id} }

const chainIDPrefix = "chain"

// ParseTarget classifies a raw identifier. Chain ids carry the "CHAIN" prefix
// (any case, e.g. "CHAIN-42" or "chain_42"); anything else non-empty is a chat id.
func ParseTarget(raw string) Target {
	id := strings.TrimSpace(raw)
	if id == "" {
		return NoTarget()
	}
	if len(id) > len(chainIDPrefix) && strings.EqualFold(id[:len(chainIDPrefix)], chainIDPrefix) {
		return ChainTarget(id)
	}
	return ChatTarget(id)
}

func (t Target) IsZero() bool {
	return t.Kind == TargetNone
}

func (t Target) String() string {
	if t.Kind == TargetNone {
		return "none"
	}
	return t.Kind.String() + ":" + t.ID
}
