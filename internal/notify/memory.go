package notify

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps notifications in process.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]*Notification
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*Notification)}
}

func (m *MemoryStore) Insert(ctx context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.byID[n.ID] = &cp
	return nil
}

func (m *MemoryStore) ListByRecipient(ctx context.Context, recipient string) ([]*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Notification
	for _, n := range m.byID {
		if n.Recipient == recipient {
			cp := *n
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

func (m *MemoryStore) CountUnread(ctx context.Context, recipient string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, item := range m.byID {
		if item.Recipient == recipient && !item.Read {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) MarkRead(ctx context.Context, recipient, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.byID[id]
	if !ok || item.Recipient != recipient {
		return ErrNotFound
	}
	item.Read = true
	return nil
}

func (m *MemoryStore) DeleteByRecipient(ctx context.Context, recipient string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, item := range m.byID {
		if item.Recipient == recipient {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}
