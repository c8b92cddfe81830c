// Package notify records and serves per-user change notifications.
package notify

import (
	"context"
	"errors"
	"time"

	"loandesk.org/internal/contract"
	"loandesk.org/internal/ids"
)

// ErrNotFound covers both missing notifications and notifications that
// belong to somebody else.
var ErrNotFound = errors.New("notify: not found")

// Notification tells a contract owner that an admin changed their record.
type Notification struct {
	ID             string                          `json:"id"`
	Recipient      string                          `json:"recipient"`
	ContractNumber string                          `json:"contract_number"`
	EditedBy       string                          `json:"edited_by"`
	Changes        map[string]contract.FieldChange `json:"changes"`
	Read           bool                            `json:"is_read"`
	CreatedAt      time.Time                       `json:"created_at"`
}

// Store persists notifications.
type Store interface {
	Insert(ctx context.Context, n *Notification) error
	// ListByRecipient returns a recipient's notifications, newest first.
	ListByRecipient(ctx context.Context, recipient string) ([]*Notification, error)
	CountUnread(ctx context.Context, recipient string) (int, error)
	// MarkRead flips the read flag; ErrNotFound when the id does not
	// exist or belongs to a different recipient.
	MarkRead(ctx context.Context, recipient, id string) error
	DeleteByRecipient(ctx context.Context, recipient string) (int, error)
}

// Service implements contract.Notifier and the read-side queries.
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

// ContractEdited records a notification for the contract owner.
func (s *Service) ContractEdited(ctx context.Context, recipient, contractNumber, editedBy string, changes map[string]contract.FieldChange) error {
	return s.store.Insert(ctx, &Notification{
		ID:             ids.New(),
		Recipient:      recipient,
		ContractNumber: contractNumber,
		EditedBy:       editedBy,
		Changes:        changes,
		CreatedAt:      s.now().UTC(),
	})
}

// List returns the recipient's notifications plus their unread count.
func (s *Service) List(ctx context.Context, recipient string) ([]*Notification, int, error) {
	items, err := s.store.ListByRecipient(ctx, recipient)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.store.CountUnread(ctx, recipient)
	if err != nil {
		return nil, 0, err
	}
	return items, unread, nil
}

// MarkRead marks one of the recipient's notifications as read.
func (s *Service) MarkRead(ctx context.Context, recipient, id string) error {
	return s.store.MarkRead(ctx, recipient, id)
}

// Clear deletes all of the recipient's notifications.
func (s *Service) Clear(ctx context.Context, recipient string) (int, error) {
	return s.store.DeleteByRecipient(ctx, recipient)
}
