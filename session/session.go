// Package session persists conversation state across turns: who is
// talking, in which language, and what has been said so far.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/sweetpotato0/convodesk/message"
)

// State represents the lifecycle state of a session.
type State string

const (
	StateActive   State = "active"
	StateInactive State = "inactive"
	StateClosed   State = "closed"
)

// Record is the serializable snapshot of a session, the unit that storage
// backends persist.
type Record struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Language  string            `json:"language"`
	State     State             `json:"state"`
	Turns     int               `json:"turns"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	History   []message.Message `json:"history,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy safe to hand across goroutines.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cloned := *r
	cloned.History = message.CloneAll(r.History)
	if r.Metadata != nil {
		cloned.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			cloned.Metadata[k] = v
		}
	}
	return &cloned
}

// Session is a live handle over a record, safe for concurrent use.
type Session struct {
	mu  sync.RWMutex
	rec Record
}

// New creates an active session for the given user.
func New(id, userID string) *Session {
	now := time.Now()
	return &Session{rec: Record{
		ID:        id,
		UserID:    userID,
		Language:  "en",
		State:     StateActive,
		CreatedAt: now,
		UpdatedAt: now,
	}}
}

// FromRecord rehydrates a session from a stored snapshot.
func FromRecord(record *Record) *Session {
	if record == nil {
		return nil
	}
	return &Session{rec: *record.Clone()}
}

// ID returns the session ID.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.ID
}

// UserID returns the owning user.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.UserID
}

// Language returns the language the conversation last settled on.
func (s *Session) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Language
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.State
}

// Turns returns the number of completed turns.
func (s *Session) Turns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Turns
}

// History returns a copy of the conversation history.
func (s *Session) History() []message.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return message.CloneAll(s.rec.History)
}

// RecordTurn stores the outcome of one turn: the full post-turn history
// and the language the conversation settled on.
func (s *Session) RecordTurn(history []message.Message, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.History = message.CloneAll(history)
	if language != "" {
		s.rec.Language = language
	}
	s.rec.Turns++
	s.rec.UpdatedAt = time.Now()
}

// SetState updates the lifecycle state.
func (s *Session) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.State = state
	s.rec.UpdatedAt = time.Now()
}

// SetMetadata attaches an arbitrary key/value pair to the session.
func (s *Session) SetMetadata(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.Metadata == nil {
		s.rec.Metadata = make(map[string]string)
	}
	s.rec.Metadata[key] = value
	s.rec.UpdatedAt = time.Now()
}

// Metadata returns the value stored under key.
func (s *Session) Metadata(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.rec.Metadata[key]
	return value, ok
}

// Close marks the session closed. Closing twice is an error.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.State == StateClosed {
		return fmt.Errorf("session %s already closed", s.rec.ID)
	}
	s.rec.State = StateClosed
	s.rec.UpdatedAt = time.Now()
	return nil
}

// Snapshot returns a serializable copy of the session.
func (s *Session) Snapshot() *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Clone()
}
