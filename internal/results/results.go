// Package results stores scoring sessions so users can save and later
// reload batches of predictions.
package results

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"loandesk.org/internal/auth"
	"loandesk.org/internal/ids"
)

var (
	ErrNotFound     = errors.New("results: not found")
	ErrInvalidInput = errors.New("results: invalid input")
)

// Row is one processed record inside a session.
type Row struct {
	RowNumber     int     `json:"row_number"`
	Name          string  `json:"name"`
	Income        float64 `json:"income"`
	Score         float64 `json:"score"`
	Result        string  `json:"result"`
	ContactStatus string  `json:"contact_status"`
}

// Session is a named batch of processing results owned by one user.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
	Rows      []Row     `json:"rows"`
}

// Store persists sessions.
type Store interface {
	Insert(ctx context.Context, s *Session) error
	// ListByUsername returns a user's sessions, newest first.
	ListByUsername(ctx context.Context, username string) ([]*Session, error)
	// Delete removes a session owned by username; ErrNotFound when the
	// id is unknown or owned by someone else.
	Delete(ctx context.Context, username, id string) error
}

// Service scopes every operation to the acting user's own sessions.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service over the given store.
func NewService(store Store, opts ...Option) *Service {
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Save stores a new session for the actor.
func (s *Service) Save(ctx context.Context, actor *auth.User, name string, rows []Row) (*Session, error) {
	if actor == nil {
		return nil, auth.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "session " + s.now().UTC().Format("2006-01-02 15:04:05")
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to save", ErrInvalidInput)
	}
	numbered := append([]Row(nil), rows...)
	for i := range numbered {
		if numbered[i].RowNumber == 0 {
			numbered[i].RowNumber = i + 1
		}
	}
	session := &Session{
		ID:        ids.New(),
		Username:  actor.Username,
		Name:      name,
		RowCount:  len(numbered),
		CreatedAt: s.now().UTC(),
		Rows:      numbered,
	}
	if err := s.store.Insert(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Load returns the actor's saved sessions.
func (s *Service) Load(ctx context.Context, actor *auth.User) ([]*Session, error) {
	if actor == nil {
		return nil, auth.ErrForbidden
	}
	return s.store.ListByUsername(ctx, actor.Username)
}

// Delete removes one of the actor's sessions.
func (s *Service) Delete(ctx context.Context, actor *auth.User, id string) error {
	if actor == nil {
		return auth.ErrForbidden
	}
	return s.store.Delete(ctx, actor.Username, id)
}
