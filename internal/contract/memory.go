package contract

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps contracts in process. Used by tests and by the api
// binary when no database DSN is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	contracts map[string]*Contract
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{contracts: make(map[string]*Contract)}
}

func (m *MemoryStore) Create(ctx context.Context, c *Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contracts[c.Number]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, c.Number)
	}
	cp := *c
	m.contracts[c.Number] = &cp
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, number string) (*Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contracts[number]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) List(ctx context.Context) ([]*Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Contract, 0, len(m.contracts))
	for _, c := range m.contracts {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Number < out[j].Number
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) Save(ctx context.Context, c *Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contracts[c.Number]; !ok {
		return ErrNotFound
	}
	cp := *c
	m.contracts[c.Number] = &cp
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, number string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contracts[number]; !ok {
		return ErrNotFound
	}
	delete(m.contracts, number)
	return nil
}

// DeleteByOwner removes every contract owned by username. Mirrors the
// cascade the SQL store runs when an identity is deleted.
func (m *MemoryStore) DeleteByOwner(ctx context.Context, username string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for number, c := range m.contracts {
		if c.Owner == username {
			delete(m.contracts, number)
			n++
		}
	}
	return n, nil
}
