package session

import (
	"context"
	"sync"

	"github.com/intakehq/voice-intake/internal/intake"
)

// MemoryStore is an in-process session store for development and
// tests. Sessions never expire.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]intake.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]intake.Session)}
}

func (m *MemoryStore) Save(_ context.Context, sess intake.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.CallSID] = sess
	return nil
}

func (m *MemoryStore) Load(_ context.Context, callSID string) (intake.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[callSID]
	if !ok {
		return intake.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemoryStore) Delete(_ context.Context, callSID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, callSID)
	return nil
}
