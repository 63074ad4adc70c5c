package reminder

import (
	"context"
	"sync"
)

// Mutation computes new settings from the current ones and reports whether
// anything changed. It may be called more than once per Update and must not
// have side effects.
type Mutation func(cur Settings) (Settings, bool)

// Store persists settings per caregiver scope. Get returns found=false
// (and no error) when nothing has been stored for scope.
type Store interface {
	Get(ctx context.Context, scope string) (Settings, bool, error)
	// Update applies fn to the stored settings for scope, or to the defaults
	// when none exist, and persists the result when fn reports a change.
	// Updates to one scope are serialized, so fn always sees the latest
	// committed write and concurrent patches to different fields all land.
	Update(ctx context.Context, scope string, fn Mutation) (Settings, bool, error)
}

type memoryStore struct {
	mu    sync.RWMutex
	items map[string]Settings
}

// NewMemoryStore returns a process-local Store.
func NewMemoryStore() Store {
	return &memoryStore{items: make(map[string]Settings)}
}

func (m *memoryStore) Get(_ context.Context, scope string) (Settings, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.items[scope]
	if !ok {
		return Settings{}, false, nil
	}
	return s.clone(), true, nil
}

func (m *memoryStore) Update(_ context.Context, scope string, fn Mutation) (Settings, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[scope]
	if !ok {
		cur = DefaultSettings()
	}
	next, changed := fn(cur.clone())
	if !changed {
		return cur.clone(), false, nil
	}
	m.items[scope] = next.clone()
	return next.clone(), true, nil
}
