// Package store provides session storage backends.
package store

import (
	"context"
	"fmt"
	"sync"

	errorskg "github.com/sweetpotato0/convodesk/errors"
	"github.com/sweetpotato0/convodesk/session"
)

// InMemoryStore keeps session records in process memory. Records are
// cloned on the way in and out so callers never share state with the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Record
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*session.Record),
	}
}

// Save stores a snapshot of the record.
func (s *InMemoryStore) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("session record cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[record.ID] = record.Clone()
	return nil
}

// Load returns a copy of the stored record.
func (s *InMemoryStore) Load(ctx context.Context, id string) (*session.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, errorskg.ErrNotFound)
	}
	return record.Clone(), nil
}

// Delete removes a session record.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, errorskg.ErrNotFound)
	}
	delete(s.sessions, id)
	return nil
}

// List returns all stored session IDs.
func (s *InMemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

// Count returns the number of stored sessions.
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}

// Exists reports whether a session is stored.
func (s *InMemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok, nil
}

// Clear removes all stored sessions.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*session.Record)
}
