package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"yyss-assistant/internal/assistant"
)

const (
	defaultSessionIdle   = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

// SessionFactory builds an empty live session.
type SessionFactory func() *assistant.Session

// ExpiredSession identifies a live session dropped for inactivity.
type ExpiredSession struct {
	ID     string
	UserID uint
}

type registryEntry struct {
	session  *assistant.Session
	userID   uint
	lastUsed time.Time
}

// SessionRegistry holds the live sessions of every connected user. It only
// stores pointers; each session guards its own state.
type SessionRegistry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	factory SessionFactory
	idle    time.Duration
	now     func() time.Time
}

func NewSessionRegistry(factory SessionFactory, idle time.Duration) *SessionRegistry {
	if idle <= 0 {
		idle = defaultSessionIdle
	}
	return &SessionRegistry{
		entries: make(map[string]*registryEntry),
		factory: factory,
		idle:    idle,
		now:     time.Now,
	}
}

// Open creates a new live session for userID and returns its id.
func (r *SessionRegistry) Open(userID uint) (string, *assistant.Session) {
	id := uuid.NewString()
	session := r.factory()

	r.mu.Lock()
	r.entries[id] = &registryEntry{session: session, userID: userID, lastUsed: r.now()}
	r.mu.Unlock()
	return id, session
}

// Attach installs an empty live session under an id that is already
// recorded elsewhere, such as a session listed in the database after a
// restart. An existing live session for the same owner is returned as is.
func (r *SessionRegistry) Attach(userID uint, id string) (*assistant.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[id]; ok {
		if entry.userID != userID {
			return nil, false
		}
		entry.lastUsed = r.now()
		return entry.session, true
	}
	session := r.factory()
	r.entries[id] = &registryEntry{session: session, userID: userID, lastUsed: r.now()}
	return session, true
}

// Get returns the live session when it exists and belongs to userID.
func (r *SessionRegistry) Get(userID uint, id string) (*assistant.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok || entry.userID != userID {
		return nil, false
	}
	entry.lastUsed = r.now()
	return entry.session, true
}

// Peek is Get without refreshing the idle clock.
func (r *SessionRegistry) Peek(userID uint, id string) (*assistant.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok || entry.userID != userID {
		return nil, false
	}
	return entry.session, true
}

func (r *SessionRegistry) Remove(userID uint, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok || entry.userID != userID {
		return false
	}
	delete(r.entries, id)
	return true
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops sessions idle for longer than the configured timeout.
// Sessions in the middle of a turn are kept.
func (r *SessionRegistry) Sweep() []ExpiredSession {
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []ExpiredSession
	for id, entry := range r.entries {
		if entry.lastUsed.After(cutoff) || entry.session.Phase() == assistant.ProcessingTurn {
			continue
		}
		delete(r.entries, id)
		expired = append(expired, ExpiredSession{ID: id, UserID: entry.userID})
	}
	return expired
}

// Run sweeps every interval until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration, onExpire func(ExpiredSession)) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, expired := range r.Sweep() {
				if onExpire != nil {
					onExpire(expired)
				}
			}
		}
	}
}
