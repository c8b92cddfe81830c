package auth

import (
	"context"
	"time"
)

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	Users(ctx context.Context) UserStore
	Revocations(ctx context.Context) Ledger
}

// UserStore manages identity records.
type UserStore interface {
	// Create inserts a new identity. Returns ErrAlreadyExists when the
	// username or email is taken.
	Create(ctx context.Context, u *User) error
	// CreateFirstAdmin inserts an admin identity only while no admin
	// exists yet. The existence check and the insert are atomic:
	// concurrent claims resolve to one success and ErrForbidden for the
	// rest.
	CreateFirstAdmin(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// List returns identities, optionally filtered by role ("" = all).
	List(ctx context.Context, role string) ([]*User, error)
	Update(ctx context.Context, id string, upd UserUpdate) (*User, error)
	// Delete removes the identity and cascades deletion of its owned
	// contracts and notifications in one transaction.
	Delete(ctx context.Context, id string) error
	SetLastLogin(ctx context.Context, id string, at time.Time) error
	Stats(ctx context.Context) (Stats, error)
}

// Ledger is the append-only record of revoked tokens. Revoke must be
// insert-if-absent: concurrent calls on one token resolve to exactly one
// success and N-1 ErrAlreadyRevoked results.
type Ledger interface {
	Revoke(ctx context.Context, entry RevocationEntry) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// PurgeExpired removes entries whose original expiry has passed.
	// Storage hygiene only; never required for correctness.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
