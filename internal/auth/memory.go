package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"loandesk.org/internal/ids"
)

// MemoryStore implements Store with in-process concurrency safety. Used
// by tests and by the api binary when no database DSN is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byName  map[string]string // username -> id
	byEmail map[string]string // email -> id

	// cascade, when set, runs after a user row is removed. It mirrors
	// the SQL store's transactional delete of the user's contracts and
	// notifications, which live in other in-memory stores here.
	cascade func(ctx context.Context, username string)

	ledgerMu sync.RWMutex
	revoked  map[string]RevocationEntry
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*User),
		byName:  make(map[string]string),
		byEmail: make(map[string]string),
		revoked: make(map[string]RevocationEntry),
	}
}

// SetDeleteCascade registers the hook run after a user is deleted.
func (m *MemoryStore) SetDeleteCascade(fn func(ctx context.Context, username string)) {
	m.cascade = fn
}

// Users returns the identity store.
func (m *MemoryStore) Users(context.Context) UserStore { return (*memoryUsers)(m) }

// Revocations returns the revocation ledger.
func (m *MemoryStore) Revocations(context.Context) Ledger { return (*memoryLedger)(m) }

type memoryUsers MemoryStore

func (m *memoryUsers) Create(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(u)
}

// CreateFirstAdmin holds the store lock across the admin-existence check
// and the insert, so concurrent claims cannot both win.
func (m *memoryUsers) CreateFirstAdmin(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Role == RoleAdmin {
			return ErrForbidden
		}
	}
	return m.createLocked(u)
}

func (m *memoryUsers) createLocked(u *User) error {
	if _, ok := m.byName[u.Username]; ok {
		return fmt.Errorf("%w: username %s", ErrAlreadyExists, u.Username)
	}
	if _, ok := m.byEmail[u.Email]; ok {
		return fmt.Errorf("%w: email %s", ErrAlreadyExists, u.Email)
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	cp := *u
	m.byID[cp.ID] = &cp
	m.byName[cp.Username] = cp.ID
	m.byEmail[cp.Email] = cp.ID
	return nil
}

func (m *memoryUsers) FindByID(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) FindByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *memoryUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *memoryUsers) List(ctx context.Context, role string) ([]*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*User
	for _, u := range m.byID {
		if role != "" && u.Role != role {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryUsers) Update(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Email != nil && *upd.Email != u.Email {
		if _, taken := m.byEmail[*upd.Email]; taken {
			return nil, fmt.Errorf("%w: email %s", ErrAlreadyExists, *upd.Email)
		}
		delete(m.byEmail, u.Email)
		u.Email = *upd.Email
		m.byEmail[u.Email] = id
	}
	if upd.Password != nil {
		u.PasswordHash = *upd.Password
	}
	if upd.DisplayName != nil {
		u.DisplayName = *upd.DisplayName
	}
	if upd.Active != nil {
		u.Active = *upd.Active
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	u, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	username := u.Username
	delete(m.byName, u.Username)
	delete(m.byEmail, u.Email)
	delete(m.byID, id)
	m.mu.Unlock()

	if m.cascade != nil {
		m.cascade(ctx, username)
	}
	return nil
}

func (m *memoryUsers) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	t := at
	u.LastLoginAt = &t
	return nil
}

func (m *memoryUsers) Stats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var st Stats
	for _, u := range m.byID {
		st.TotalUsers++
		if u.Active {
			st.ActiveUsers++
		}
		if u.Role == RoleAdmin {
			st.AdminUsers++
		} else {
			st.RegularUsers++
		}
	}
	return st, nil
}

type memoryLedger MemoryStore

func (m *memoryLedger) Revoke(ctx context.Context, entry RevocationEntry) error {
	m.ledgerMu.Lock()
	defer m.ledgerMu.Unlock()
	if _, ok := m.revoked[entry.TokenID]; ok {
		return ErrAlreadyRevoked
	}
	m.revoked[entry.TokenID] = entry
	return nil
}

func (m *memoryLedger) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.ledgerMu.RLock()
	defer m.ledgerMu.RUnlock()
	_, ok := m.revoked[tokenID]
	return ok, nil
}

func (m *memoryLedger) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	m.ledgerMu.Lock()
	defer m.ledgerMu.Unlock()
	n := 0
	for id, entry := range m.revoked {
		if entry.OriginalExpiresAt.Before(now) {
			delete(m.revoked, id)
			n++
		}
	}
	return n, nil
}
