package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	sess    *Session
	expires time.Time
}

// MemoryManager keeps sessions in process memory. Load returns the same
// *Session across requests, so in-place mutations are visible immediately.
// Entries expire ttl after their last Save; a ttl of zero keeps them forever.
type MemoryManager struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryManager(ttl time.Duration) *MemoryManager {
	return &MemoryManager{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryManager) New(ctx context.Context) (*Session, error) {
	s := newSession()
	m.mu.Lock()
	m.purgeExpired()
	m.sessions[s.ID] = m.entry(s)
	m.mu.Unlock()
	return s, nil
}

func (m *MemoryManager) Load(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if m.expired(e) {
		m.mu.Lock()
		if cur, ok := m.sessions[id]; ok && m.expired(cur) {
			delete(m.sessions, id)
		}
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	return e.sess, nil
}

func (m *MemoryManager) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	m.sessions[s.ID] = m.entry(s)
	m.mu.Unlock()
	return nil
}

func (m *MemoryManager) Destroy(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Len reports how many sessions are held, expired ones included.
func (m *MemoryManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryManager) entry(s *Session) memoryEntry {
	e := memoryEntry{sess: s}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	return e
}

func (m *MemoryManager) expired(e memoryEntry) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}

// purgeExpired drops expired entries. Callers hold the write lock.
func (m *MemoryManager) purgeExpired() {
	for id, e := range m.sessions {
		if m.expired(e) {
			delete(m.sessions, id)
		}
	}
}
