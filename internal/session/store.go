// Package session provides the in-memory session store and the idle reaper.
//
// The store holds one mutable session record per user identity and
// serializes all mutations to a given identity. Sessions do not survive a
// process restart.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/carebridge/healthmate/internal/models"
)

// Store defines the session store abstraction. All mutations go through
// Update, which serializes concurrent callers; the locking strategy is an
// implementation detail behind this interface.
type Store interface {
	// Update runs fn against the session for identity under the store's
	// serialization. The session is created on first use and lazily evicted
	// when fn leaves it empty.
	Update(identity string, fn func(s *models.Session))

	// Peek returns a copy of the session for identity, if present.
	Peek(identity string) (models.Session, bool)

	// Delete removes the session for identity, if present.
	Delete(identity string)

	// Identities returns a snapshot of all identities with a session record.
	Identities() []string

	// Len returns the number of session records.
	Len() int
}

// MemoryStore implements Store with a mutex-guarded map. A single store-wide
// mutex is sufficient here: Update callers only compute state transitions
// under the lock and issue collaborator I/O after it is released.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	slog.Debug("Creating session MemoryStore")
	return &MemoryStore{sessions: make(map[string]*models.Session)}
}

// Update runs fn against the session for identity under the store mutex.
func (m *MemoryStore) Update(identity string, fn func(s *models.Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[identity]
	if !ok {
		sess = &models.Session{Identity: identity, LastActivity: time.Now()}
		m.sessions[identity] = sess
		slog.Debug("Session created", "identity", identity)
	}

	fn(sess)

	if sess.Empty() {
		delete(m.sessions, identity)
		slog.Debug("Session evicted (empty)", "identity", identity)
	}
}

// Peek returns a copy of the session for identity.
func (m *MemoryStore) Peek(identity string) (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[identity]
	if !ok {
		return models.Session{}, false
	}
	return copySession(sess), true
}

// Delete removes the session for identity.
func (m *MemoryStore) Delete(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[identity]; ok {
		delete(m.sessions, identity)
		slog.Debug("Session deleted", "identity", identity)
	}
}

// Identities returns a snapshot of all identities with a session record.
func (m *MemoryStore) Identities() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of session records.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func copySession(s *models.Session) models.Session {
	out := *s
	if s.Data != nil {
		out.Data = make(map[models.DataKey]string, len(s.Data))
		for k, v := range s.Data {
			out.Data[k] = v
		}
	}
	if s.Flags != nil {
		out.Flags = make(map[models.SessionFlag]bool, len(s.Flags))
		for k, v := range s.Flags {
			out.Flags[k] = v
		}
	}
	return out
}
