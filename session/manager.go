package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sweetpotato0/convodesk/pkg/logging"
)

// Store defines the interface for session storage backends that operate on
// serializable session records.
type Store interface {
	Save(ctx context.Context, record *Record) error
	Load(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// Manager manages the live sessions on top of a storage backend. Loaded
// sessions are cached in memory; Save pushes a snapshot back to the store.
type Manager struct {
	mu       sync.RWMutex
	store    Store
	sessions map[string]*Session
	logger   *slog.Logger
}

// Option is a function that configures a Manager.
type Option func(*Manager)

// WithStore sets the storage backend for the manager.
func WithStore(s Store) Option {
	return func(m *Manager) {
		m.store = s
	}
}

// WithLogger overrides the logger used by the manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a session manager with the given options.
//
// Example:
//
//	mgr := session.NewManager(session.WithStore(store.NewInMemoryStore()))
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.WithComponent("session_manager")
	}
	return m
}

// Create creates a new session for the user. Creating an ID that already
// exists in the store is an error.
func (m *Manager) Create(ctx context.Context, id, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureStore(); err != nil {
		return nil, err
	}

	exists, err := m.store.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check session existence: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("session %s already exists", id)
	}

	sess := New(id, userID)
	if err := m.persistLocked(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.sessions[id] = sess
	m.logger.Info("session created", "id", id, "user_id", userID)
	return sess, nil
}

// Get retrieves a session by ID, rehydrating it from the store when it is
// not cached.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if sess, ok := m.getCached(id); ok {
		return sess, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[id]; ok {
		return sess, nil
	}

	if err := m.ensureStore(); err != nil {
		return nil, err
	}

	record, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	sess := FromRecord(record)
	if sess == nil {
		return nil, fmt.Errorf("session %s has no record", id)
	}

	m.sessions[id] = sess
	m.logger.Debug("session rehydrated", "id", id)
	return sess, nil
}

// GetOrCreate retrieves a session by ID or creates a fresh one for the
// user when none exists.
func (m *Manager) GetOrCreate(ctx context.Context, id, userID string) (*Session, error) {
	if sess, ok := m.getCached(id); ok {
		return sess, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[id]; ok {
		return sess, nil
	}

	if err := m.ensureStore(); err != nil {
		return nil, err
	}

	if record, err := m.store.Load(ctx, id); err == nil && record != nil {
		sess := FromRecord(record)
		m.sessions[id] = sess
		m.logger.Debug("session rehydrated", "id", id)
		return sess, nil
	}

	sess := New(id, userID)
	if err := m.persistLocked(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	m.sessions[id] = sess
	m.logger.Info("session created", "id", id, "user_id", userID)
	return sess, nil
}

// Save pushes a snapshot of the session to the store.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if err := m.ensureStore(); err != nil {
		return err
	}
	if err := m.store.Save(ctx, sess.Snapshot()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete closes and removes a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[id]; ok {
		_ = sess.Close()
	}
	delete(m.sessions, id)

	if err := m.ensureStore(); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.logger.Info("session deleted", "id", id)
	return nil
}

// List returns all stored session IDs.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	if err := m.ensureStore(); err != nil {
		return nil, err
	}
	return m.store.List(ctx)
}

// Count returns the number of stored sessions.
func (m *Manager) Count(ctx context.Context) (int, error) {
	if err := m.ensureStore(); err != nil {
		return 0, err
	}
	return m.store.Count(ctx)
}

// CleanupStale removes sessions that are no longer active or whose last
// update is older than olderThan. A non-positive olderThan keeps stale but
// active sessions.
func (m *Manager) CleanupStale(ctx context.Context, olderThan time.Duration) (int, error) {
	if err := m.ensureStore(); err != nil {
		return 0, err
	}

	ids, err := m.store.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, id := range ids {
		record, err := m.store.Load(ctx, id)
		if err != nil {
			m.logger.Warn("cleanup load failed", "id", id, "error", err)
			continue
		}
		stale := record.State != StateActive ||
			(olderThan > 0 && record.UpdatedAt.Before(cutoff))
		if !stale {
			continue
		}
		if err := m.store.Delete(ctx, id); err != nil {
			m.logger.Warn("cleanup delete failed", "id", id, "error", err)
			continue
		}
		removed++
		m.mu.Lock()
		if sess, ok := m.sessions[id]; ok {
			_ = sess.Close()
			delete(m.sessions, id)
		}
		m.mu.Unlock()
	}
	m.logger.Info("cleanup completed", "removed", removed)
	return removed, nil
}

func (m *Manager) persistLocked(ctx context.Context, sess *Session) error {
	if err := m.ensureStore(); err != nil {
		return err
	}
	return m.store.Save(ctx, sess.Snapshot())
}

func (m *Manager) ensureStore() error {
	if m.store == nil {
		return fmt.Errorf("session manager store is not configured")
	}
	return nil
}

func (m *Manager) getCached(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}
