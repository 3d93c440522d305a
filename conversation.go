package main

import "strings"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the conversation. Never modified after creation.
type Turn struct {
	Role    Role
	Content string
}

type ConversationState int

const (
	StateIdle ConversationState = iota
	StateListening
	StateProcessing
	StateSpeaking
)

func (s ConversationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// History is the ordered, append-only log of turns for one session.
// It is owned by a single Session and only mutated from its event loop.
type History struct {
	turns []Turn
}

// NewHistory seeds the log with the system prompt.
func NewHistory(systemPrompt string) *History {
	h := &History{}
	if p := strings.TrimSpace(systemPrompt); p != "" {
		h.turns = append(h.turns, Turn{Role: RoleSystem, Content: p})
	}
	return h
}

func (h *History) Append(role Role, content string) Turn {
	t := Turn{Role: role, Content: content}
	h.turns = append(h.turns, t)
	return t
}

func (h *History) Len() int { return len(h.turns) }

// Turns returns a copy of every turn in insertion order.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Window returns the turns to send to the model: every system turn plus the
// last n non-system turns, in insertion order. n <= 0 means all.
func (h *History) Window(n int) []Turn {
	if n <= 0 {
		return h.Turns()
	}

	keep := make([]bool, len(h.turns))
	remaining := n
	for i := len(h.turns) - 1; i >= 0; i-- {
		if h.turns[i].Role == RoleSystem {
			keep[i] = true
			continue
		}
		if remaining > 0 {
			keep[i] = true
			remaining--
		}
	}

	out := make([]Turn, 0, len(h.turns))
	for i, t := range h.turns {
		if keep[i] {
			out = append(out, t)
		}
	}
	return out
}
