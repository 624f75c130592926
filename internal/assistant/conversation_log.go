package assistant

import (
	"sync"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationLog is the ordered turn sequence of one session. A user turn
// is always followed by exactly one assistant turn.
type ConversationLog struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewConversationLog() *ConversationLog {
	return &ConversationLog{}
}

func (l *ConversationLog) Append(turn Turn) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	last := Role("")
	if n := len(l.turns); n > 0 {
		last = l.turns[n-1].Role
	}
	switch turn.Role {
	case RoleUser:
		if last == RoleUser {
			return ErrRoleOrder
		}
	case RoleAssistant:
		if last != RoleUser {
			return ErrRoleOrder
		}
	default:
		return ErrRoleOrder
	}

	l.turns = append(l.turns, turn)
	return nil
}

// Turns returns a copy in display order.
func (l *ConversationLog) Turns() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

func (l *ConversationLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

func (l *ConversationLog) Clear() {
	l.mu.Lock()
	l.turns = nil
	l.mu.Unlock()
}
