package triage

import (
	"context"
	"sync"
	"time"
)

// State tags where a decision dialogue currently stands. There is no terminal
// tag: finalization removes the session, which is itself the terminal signal.
type State string

const (
	// StateAwaitingAvailability is the initial state set on session creation.
	StateAwaitingAvailability State = "awaiting_availability"
	// StateAwaitingTime waits for the operator to supply a meeting time.
	StateAwaitingTime State = "awaiting_time"
	// StateAwaitingRescheduleConfirm waits for a yes/no on proposing another time.
	StateAwaitingRescheduleConfirm State = "awaiting_reschedule_confirm"
	// StateAwaitingRescheduleTime waits for the replacement time.
	StateAwaitingRescheduleTime State = "awaiting_reschedule_time"
)

// Session is the mutable record of one in-flight decision dialogue, keyed by
// conversation ID. At most one session exists per conversation; a new
// qualifying email overwrites the pending one (last-write-wins).
type Session struct {
	Email Email
	State State
}

type sessionEntry struct {
	session    Session
	lastAccess time.Time
}

// SessionStore is the process-wide conversation ID to Session mapping.
// Thread-safe; the single logical owner of mutable dialogue state.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	maxIdle  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSessionStore creates a session store with a background sweep that drops
// dialogues idle longer than maxIdle (default 24h).
func NewSessionStore(maxIdle time.Duration) *SessionStore {
	if maxIdle <= 0 {
		maxIdle = 24 * time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &SessionStore{
		sessions: make(map[string]*sessionEntry),
		maxIdle:  maxIdle,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.wg.Add(1)
	go s.cleanupLoop()
	return s
}

// Close stops the cleanup goroutine.
func (s *SessionStore) Close() {
	s.cancel()
	s.wg.Wait()
}

// Put stores the session for the conversation, overwriting any existing one.
// Returns true when an existing session was replaced.
func (s *SessionStore) Put(conversationID string, session Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, replaced := s.sessions[conversationID]
	s.sessions[conversationID] = &sessionEntry{
		session:    session,
		lastAccess: time.Now(),
	}
	return replaced
}

// Get returns the session for the conversation, if any. Reading refreshes the
// idle clock.
func (s *SessionStore) Get(conversationID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[conversationID]
	if !ok {
		return Session{}, false
	}
	entry.lastAccess = time.Now()
	return entry.session, true
}

// Remove deletes the session for the conversation.
func (s *SessionStore) Remove(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, conversationID)
}

// Count returns the number of active sessions.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) cleanupLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *SessionStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.sessions {
		if now.Sub(entry.lastAccess) > s.maxIdle {
			delete(s.sessions, id)
		}
	}
}
