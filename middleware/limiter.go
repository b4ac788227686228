package middleware

import "sync"

// SessionLimiter bounds how many turns each session may run.
type SessionLimiter struct {
	mu       sync.Mutex
	maxTurns int
	counts   map[string]int
}

// NewSessionLimiter creates the limiter. A non-positive maxTurns disables
// limiting.
func NewSessionLimiter(maxTurns int) *SessionLimiter {
	return &SessionLimiter{
		maxTurns: maxTurns,
		counts:   make(map[string]int),
	}
}

// Name returns the middleware name.
func (m *SessionLimiter) Name() string {
	return "SessionLimiter"
}

// Execute counts the turn against its session and rejects it once the
// session budget is spent.
func (m *SessionLimiter) Execute(ctx *Context, next Handler) error {
	if m.maxTurns > 0 {
		m.mu.Lock()
		if m.counts[ctx.SessionID] >= m.maxTurns {
			m.mu.Unlock()
			return ErrRateLimitExceeded
		}
		m.counts[ctx.SessionID]++
		m.mu.Unlock()
	}
	return next(ctx)
}

// Reset clears the counter for one session.
func (m *SessionLimiter) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counts, sessionID)
}

// Count returns the turns recorded for a session.
func (m *SessionLimiter) Count(sessionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[sessionID]
}
