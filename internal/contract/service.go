package contract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"loandesk.org/internal/auth"
	"loandesk.org/internal/obs"
)

// Notifier receives change notifications when an admin edits somebody
// else's contract.
type Notifier interface {
	ContractEdited(ctx context.Context, recipient, contractNumber, editedBy string, changes map[string]FieldChange) error
}

// UserDirectory answers existence checks for owner reassignment targets.
type UserDirectory interface {
	UserExists(ctx context.Context, username string) (bool, error)
}

// Service applies the access policy to contract operations.
type Service struct {
	store    Store
	notifier Notifier
	users    UserDirectory
	now      func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithNotifier attaches the change notification sink.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithUserDirectory attaches the identity existence check used for
// owner reassignment.
func WithUserDirectory(d UserDirectory) ServiceOption {
	return func(s *Service) { s.users = d }
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service over the given store.
func NewService(store Store, opts ...ServiceOption) *Service {
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create stores a new contract owned by the actor.
func (s *Service) Create(ctx context.Context, actor *auth.User, c *Contract) (*Contract, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	c.Number = strings.TrimSpace(c.Number)
	if c.Status == "" {
		c.Status = StatusPending
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Owner = actor.Username
	now := s.now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a contract the actor is allowed to read. A contract the
// actor cannot read is reported as not found.
func (s *Service) Get(ctx context.Context, actor *auth.User, number string) (*Contract, error) {
	c, err := s.store.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	if !auth.Decide(actor, c.Owner, auth.OpRead).Allowed {
		return nil, ErrNotFound
	}
	return c, nil
}

// List returns the contracts visible to the actor: admins see all,
// regular users see their own plus legacy records with no owner.
func (s *Service) List(ctx context.Context, actor *auth.User) ([]*Contract, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Contract, 0, len(all))
	for _, c := range all {
		if auth.CanSee(actor, c.Owner) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Edit applies an update to a contract the actor may write. When an
// admin edits a contract owned by someone else, the owner is notified
// with the per-field changes. Notification failures are logged and do
// not fail the edit.
func (s *Service) Edit(ctx context.Context, actor *auth.User, number string, upd Update) (*Contract, error) {
	c, err := s.store.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	if !auth.Decide(actor, c.Owner, auth.OpWrite).Allowed {
		return nil, ErrNotFound
	}

	changes := Diff(c, upd)
	if len(changes) == 0 {
		return c, nil
	}
	// The updated record must satisfy the same constraints as a new one.
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	s.notifyOwner(ctx, actor, c.Owner, c.Number, changes)
	return c, nil
}

// Delete removes a contract. Owners may delete their own records;
// legacy records with no owner can only be deleted by an admin.
func (s *Service) Delete(ctx context.Context, actor *auth.User, number string) error {
	c, err := s.store.Get(ctx, number)
	if err != nil {
		return err
	}
	if !auth.Decide(actor, c.Owner, auth.OpDelete).Allowed {
		return ErrNotFound
	}
	return s.store.Delete(ctx, number)
}

// ReassignOwner transfers a contract to another user. Admin only; the
// target must be an existing identity. The previous owner, if any, is
// notified of the change.
func (s *Service) ReassignOwner(ctx context.Context, actor *auth.User, number, newOwner string) (*Contract, error) {
	if !auth.Decide(actor, "", auth.OpReassignOwner).Allowed {
		return nil, ErrForbidden
	}
	newOwner = strings.TrimSpace(newOwner)
	if newOwner == "" {
		return nil, fmt.Errorf("%w: new owner is required", ErrInvalidInput)
	}
	if s.users != nil {
		ok, err := s.users.UserExists(ctx, newOwner)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: unknown user %q", ErrInvalidInput, newOwner)
		}
	}
	c, err := s.store.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	if c.Owner == newOwner {
		return c, nil
	}
	prev := c.Owner
	c.Owner = newOwner
	c.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	s.notifyOwner(ctx, actor, prev, c.Number, map[string]FieldChange{
		"username": {Old: prev, New: newOwner},
	})
	return c, nil
}

func (s *Service) notifyOwner(ctx context.Context, actor *auth.User, owner, number string, changes map[string]FieldChange) {
	if s.notifier == nil || !actor.IsAdmin() {
		return
	}
	if owner == auth.OwnerSentinel || owner == actor.Username {
		return
	}
	if err := s.notifier.ContractEdited(ctx, owner, number, actor.Username, changes); err != nil {
		obs.LogJSON(map[string]any{
			"level":    "error",
			"msg":      "notification_failed",
			"contract": number,
			"owner":    owner,
			"error":    err.Error(),
		})
	}
}
