package results

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps sessions in process.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]*Session
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*Session)}
}

func (m *MemoryStore) Insert(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.Rows = append([]Row(nil), s.Rows...)
	m.byID[s.ID] = &cp
	return nil
}

func (m *MemoryStore) ListByUsername(ctx context.Context, username string) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Session
	for _, s := range m.byID {
		if s.Username == username {
			cp := *s
			cp.Rows = append([]Row(nil), s.Rows...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, username, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok || s.Username != username {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}
