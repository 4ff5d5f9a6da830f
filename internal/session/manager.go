package session

import (
	"sync"

	"github.com/google/uuid"
)

// #region manager

// Manager owns the live runs, keyed by session id. Each run serializes its
// own operations; the manager only guards the map.
type Manager struct {
	mu   sync.RWMutex
	runs map[string]*Run
	deps Deps
}

// NewManager creates an empty manager sharing deps across runs.
func NewManager(deps Deps) *Manager {
	return &Manager{runs: make(map[string]*Run), deps: deps}
}

// Create starts a fresh run under a new session id.
func (m *Manager) Create() *Run {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	r := NewRun(id, m.deps)
	m.runs[id] = r
	return r
}

// Get looks up a live run, ok=false for unknown or expired ids.
func (m *Manager) Get(id string) (*Run, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	return r, ok
}

// GetOrCreate returns the run for id, materializing one when the id is
// unknown. Clients that persist a session id across restarts land here.
func (m *Manager) GetOrCreate(id string) *Run {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.runs[id]; ok {
		return r
	}
	if id == "" {
		id = uuid.NewString()
	}
	r := NewRun(id, m.deps)
	m.runs[id] = r
	return r
}

// Drop removes a run from the manager. In-flight operations on the run
// finish normally; the run just becomes unreachable by id.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, id)
}

// Len reports the number of live runs.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// #endregion manager
