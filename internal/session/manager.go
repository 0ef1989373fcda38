package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session tracks in-process state for one conversation: the turn lock and
// whether a qualified lead was already handed off. Conversation content
// itself lives in the store.
type Session struct {
	ID             string
	StartedAt      time.Time
	LastActivityAt time.Time
	LeadPushed     bool

	turnMu sync.Mutex
}

// LockTurn serializes message processing for the session. Memory updates
// are last-stated-wins, so turns must apply in arrival order.
func (s *Session) LockTurn() { s.turnMu.Lock() }

func (s *Session) UnlockTurn() { s.turnMu.Unlock() }

// Manager owns the live session table. Sessions that go quiet are dropped
// by the janitor so the table does not grow with traffic.
type Manager struct {
	mu                sync.RWMutex
	sessions          map[string]*Session
	inactivityTimeout time.Duration
	now               func() time.Time
	onExpire          func(*Session)
}

func NewManager(inactivityTimeout time.Duration) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	return &Manager{
		sessions:          make(map[string]*Session),
		inactivityTimeout: inactivityTimeout,
		now:               time.Now,
	}
}

func NewManagerWithClock(inactivityTimeout time.Duration, now func() time.Time) *Manager {
	m := NewManager(inactivityTimeout)
	m.now = now
	return m
}

func (m *Manager) SetExpireHook(hook func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

// Create mints a new session id and starts tracking it.
func (m *Manager) Create() *Session {
	now := m.now().UTC()
	s := &Session{
		ID:             uuid.NewString(),
		StartedAt:      now,
		LastActivityAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s
}

// GetOrCreate returns the live session for an id, reviving it if the
// janitor dropped it or the id was minted elsewhere. The activity clock is
// refreshed on every call.
func (m *Manager) GetOrCreate(sessionID string) *Session {
	now := m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &Session{
			ID:             sessionID,
			StartedAt:      now,
			LastActivityAt: now,
		}
		m.sessions[sessionID] = s
	} else {
		s.LastActivityAt = now
	}
	return s
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

func (m *Manager) expireInactive() {
	now := m.now().UTC()
	var expired []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastActivityAt) < m.inactivityTimeout {
			continue
		}
		delete(m.sessions, id)
		expired = append(expired, s)
	}
	hook := m.onExpire
	m.mu.Unlock()

	if hook != nil {
		for _, s := range expired {
			hook(s)
		}
	}
}
