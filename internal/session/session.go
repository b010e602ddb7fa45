// Package session tracks per-identity conversation state. A session
// owns the running message history and the settings a conversation can
// override: language, timezone and voice.
package session

import (
	"sync"
	"time"

	"github.com/auralab-io/stimme/internal/brain"
	"github.com/auralab-io/stimme/internal/metrics"
)

// Session is the conversation state for one identity. The embedded
// mutex serializes turns: concurrent submissions for the same identity
// run one at a time, each seeing the history the previous turn left.
type Session struct {
	Identity   string
	Messages   []brain.Message
	MaxHistory int
	Language   string
	Timezone   string
	Voice      string

	CreatedAt time.Time
	UpdatedAt time.Time

	mu sync.Mutex
}

// Lock acquires the session's turn lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's turn lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Append adds messages to the history and stamps the update time.
func (s *Session) Append(msgs ...brain.Message) {
	s.Messages = append(s.Messages, msgs...)
	s.UpdatedAt = time.Now()
}

// Rollback truncates the history back to n messages. Used when a turn
// fails partway and its partial messages must not survive.
func (s *Session) Rollback(n int) {
	if n < 0 || n > len(s.Messages) {
		return
	}
	s.Messages = s.Messages[:n]
}

// TruncateTurns drops whole turns from the front of the history until
// it fits within twice MaxHistory. A turn starts at a user message, so
// truncation never leaves an orphaned tool or assistant message at the
// head.
func (s *Session) TruncateTurns() {
	limit := 2 * s.MaxHistory
	if limit <= 0 || len(s.Messages) <= limit {
		return
	}

	msgs := s.Messages
	for len(msgs) > limit {
		// Drop the leading user message, then everything up to the
		// next user message.
		i := 1
		for i < len(msgs) && msgs[i].Role != brain.RoleUser {
			i++
		}
		msgs = msgs[i:]
	}
	s.Messages = msgs
}

// Store is a thread-safe collection of sessions keyed by identity.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	maxHistory int
	language   string
	timezone   string
	voice      string
}

// NewStore creates a session store. New sessions inherit the given
// defaults until the conversation overrides them.
func NewStore(maxHistory int, language, timezone, voice string) *Store {
	if maxHistory <= 0 {
		maxHistory = 10
	}
	return &Store{
		sessions:   make(map[string]*Session),
		maxHistory: maxHistory,
		language:   language,
		timezone:   timezone,
		voice:      voice,
	}
}

// GetOrCreate returns the session for an identity, creating it lazily
// on first contact.
func (st *Store) GetOrCreate(identity string) *Session {
	st.mu.RLock()
	sess, ok := st.sessions[identity]
	st.mu.RUnlock()
	if ok {
		return sess
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if sess, ok := st.sessions[identity]; ok {
		return sess
	}

	now := time.Now()
	sess = &Session{
		Identity:   identity,
		MaxHistory: st.maxHistory,
		Language:   st.language,
		Timezone:   st.timezone,
		Voice:      st.voice,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	st.sessions[identity] = sess
	metrics.ActiveSessions.Inc()
	return sess
}

// Get returns the session for an identity if one exists.
func (st *Store) Get(identity string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[identity]
	return sess, ok
}

// Reset clears a session's history in place, keeping the identity and
// its settings. Resetting an unknown identity is a no-op.
func (st *Store) Reset(identity string) {
	sess, ok := st.Get(identity)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	sess.Messages = nil
	sess.UpdatedAt = time.Now()
}

// DefaultLanguage is the language new sessions start with.
func (st *Store) DefaultLanguage() string {
	return st.language
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
