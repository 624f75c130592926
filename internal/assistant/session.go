package assistant

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Phase int32

const (
	WaitingForInput Phase = iota
	ProcessingTurn
)

func (p Phase) String() string {
	switch p {
	case ProcessingTurn:
		return "processing_turn"
	default:
		return "waiting_for_input"
	}
}

// Exchange is the outcome of one handled message.
type Exchange struct {
	User      Turn        `json:"user"`
	Assistant Turn        `json:"assistant"`
	Source    ReplySource `json:"source"`
	// GenerationErr is set when the reply is the apology for a failed call.
	GenerationErr error `json:"-"`
}

// Session is the per-user composition root. Messages and resets are handled
// one at a time; uploads and readers of History and Document never block on
// a running turn.
type Session struct {
	events    sync.Mutex
	documents *DocumentStore
	log       *ConversationLog
	policy    *Policy
	phase     atomic.Int32
	now       func() time.Time
}

func NewSession(policy *Policy, extractor Extractor) *Session {
	return &Session{
		documents: NewDocumentStore(extractor),
		log:       NewConversationLog(),
		policy:    policy,
		now:       time.Now,
	}
}

// HandleUpload does not wait for a running turn. That turn keeps the
// document it started with; the next one sees the new record.
func (s *Session) HandleUpload(name string, raw []byte, mimeType string) (DocumentRecord, error) {
	return s.documents.Set(name, raw, mimeType)
}

// HandleMessage appends the user turn before the policy runs so the turn is
// already visible through History while a slow generation is in flight.
func (s *Session) HandleMessage(ctx context.Context, text string) (Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Exchange{}, ErrEmptyMessage
	}

	s.events.Lock()
	defer s.events.Unlock()

	s.phase.Store(int32(ProcessingTurn))
	defer s.phase.Store(int32(WaitingForInput))

	userTurn := Turn{Role: RoleUser, Text: text, CreatedAt: s.now()}
	if err := s.log.Append(userTurn); err != nil {
		return Exchange{}, err
	}

	var doc *DocumentRecord
	if current, ok := s.documents.Current(); ok {
		doc = &current
	}
	reply := s.policy.Respond(ctx, text, doc)

	assistantTurn := Turn{Role: RoleAssistant, Text: reply.Text, CreatedAt: s.now()}
	if err := s.log.Append(assistantTurn); err != nil {
		return Exchange{}, err
	}

	return Exchange{
		User:          userTurn,
		Assistant:     assistantTurn,
		Source:        reply.Source,
		GenerationErr: reply.Err,
	}, nil
}

// Reset discards the conversation; the document is kept.
func (s *Session) Reset() {
	s.events.Lock()
	defer s.events.Unlock()
	s.log.Clear()
}

func (s *Session) History() []Turn {
	return s.log.Turns()
}

func (s *Session) Document() (DocumentRecord, bool) {
	return s.documents.Current()
}

func (s *Session) Phase() Phase {
	return Phase(s.phase.Load())
}
