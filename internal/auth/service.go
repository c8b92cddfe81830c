package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service composes the token issuer, the revocation ledger and the
// credential store into the session lifecycle operations.
type Service struct {
	store  Store
	tokens *Issuer
	hasher PasswordHasher
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithPasswordHasher overrides the password hashing capability.
func WithPasswordHasher(h PasswordHasher) ServiceOption {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, tokens *Issuer, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token issuer is required")
	}
	svc := &Service{
		store:  store,
		tokens: tokens,
		hasher: BcryptHasher{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RegisterRequest carries a registration or admin-created identity.
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"full_name"`
	Role        string `json:"role"`
}

// Register creates a new identity. The admin role may be claimed exactly
// once, while no admin exists yet (first-admin bootstrap); afterwards
// admin identities are created only through CreateUser by an admin.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	user, err := s.buildUser(ctx, req)
	if err != nil {
		return nil, err
	}
	if user.Role == RoleAdmin {
		if err := s.store.Users(ctx).CreateFirstAdmin(ctx, user); err != nil {
			if errors.Is(err, ErrForbidden) {
				return nil, fmt.Errorf("%w: admin role is not self-assignable", ErrForbidden)
			}
			return nil, err
		}
		return user, nil
	}
	if err := s.store.Users(ctx).Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser is the admin-initiated variant of Register: any role may be
// assigned, but only by an admin actor.
func (s *Service) CreateUser(ctx context.Context, actor *User, req RegisterRequest) (*User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	user, err := s.buildUser(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.Users(ctx).Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) buildUser(ctx context.Context, req RegisterRequest) (*User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	role := strings.TrimSpace(strings.ToLower(req.Role))
	if role == "" {
		role = RoleUser
	}
	if role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf("%w: unsupported role %s", ErrInvalidInput, role)
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Active:       true,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}, nil
}

// Login verifies credentials and issues a session token. Unknown username
// and wrong password are deliberately indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, time.Time, *User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}
	user, err := s.store.Users(ctx).FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", time.Time{}, nil, ErrInvalidCredentials
		}
		return "", time.Time{}, nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", time.Time{}, nil, err
	}

	now := s.now().UTC()
	if err := s.store.Users(ctx).SetLastLogin(ctx, user.ID, now); err != nil {
		return "", time.Time{}, nil, err
	}
	user.LastLoginAt = &now
	return token, expiresAt, user, nil
}

// Authenticate resolves a bearer credential to an identity. Sequence,
// each step short-circuiting:
//
//  1. extract the token (ErrMalformedCredential)
//  2. revocation ledger lookup (ErrRevoked), before signature/expiry
//     inspection, so a revoked-and-also-expired token reads as revoked
//  3. signature and expiry (ErrInvalidSignature, ErrTokenExpired)
//  4. subject lookup (ErrUnknownSubject)
//  5. active flag (ErrInactiveAccount)
//
// No mutating side effects; safe to call repeatedly per request.
func (s *Service) Authenticate(ctx context.Context, bearer string) (*User, error) {
	claims, err := s.checkToken(ctx, bearer)
	if err != nil {
		return nil, err
	}
	user, err := s.lookupSubject(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, ErrInactiveAccount
	}
	return user, nil
}

// Logout revokes the presented token. The active flag is intentionally
// not checked: an inactive user can still invalidate their own token.
// A second logout with the same token returns ErrAlreadyRevoked.
func (s *Service) Logout(ctx context.Context, bearer string) (string, error) {
	claims, err := s.checkToken(ctx, bearer)
	if err != nil {
		return "", err
	}
	if _, err := s.lookupSubject(ctx, claims.Subject); err != nil {
		return "", err
	}
	entry := RevocationEntry{
		TokenID:           claims.ID,
		Subject:           claims.Subject,
		RevokedAt:         s.now().UTC(),
		OriginalExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.store.Revocations(ctx).Revoke(ctx, entry); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *Service) checkToken(ctx context.Context, bearer string) (*Claims, error) {
	tokenID, err := PeekID(bearer)
	if err != nil {
		return nil, err
	}
	revoked, err := s.store.Revocations(ctx).IsRevoked(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevoked
	}
	return s.tokens.Verify(bearer)
}

func (s *Service) lookupSubject(ctx context.Context, subject string) (*User, error) {
	user, err := s.store.Users(ctx).FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownSubject
		}
		return nil, err
	}
	return user, nil
}

// GetUser returns an identity by id. Admin only.
func (s *Service) GetUser(ctx context.Context, actor *User, userID string) (*User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.store.Users(ctx).FindByID(ctx, userID)
}

// ListUsers returns identities, optionally filtered by role. Admin only.
func (s *Service) ListUsers(ctx context.Context, actor *User, role string) ([]*User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	role = strings.TrimSpace(strings.ToLower(role))
	if role != "" && role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf("%w: unsupported role %s", ErrInvalidInput, role)
	}
	return s.store.Users(ctx).List(ctx, role)
}

// UpdateUser applies admin edits to an identity. An admin may edit any
// field of any account except downgrading their own role.
func (s *Service) UpdateUser(ctx context.Context, actor *User, userID string, upd UserUpdate) (*User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if upd.Role != nil {
		role := strings.TrimSpace(strings.ToLower(*upd.Role))
		if role != RoleUser && role != RoleAdmin {
			return nil, fmt.Errorf("%w: unsupported role %s", ErrInvalidInput, role)
		}
		if actor.ID == userID && role != RoleAdmin {
			return nil, fmt.Errorf("%w: cannot downgrade own role", ErrForbidden)
		}
		upd.Role = &role
	}
	if upd.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*upd.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
		}
		upd.Email = &email
	}
	if upd.Password != nil {
		hash, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
		upd.Password = &hash
	}
	return s.store.Users(ctx).Update(ctx, userID, upd)
}

// DeleteUser removes an identity and its owned contracts. Admin only; an
// admin can never delete their own account, so some admin action always
// remains reachable.
func (s *Service) DeleteUser(ctx context.Context, actor *User, userID string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if actor.ID == userID {
		return fmt.Errorf("%w: cannot delete own account", ErrForbidden)
	}
	return s.store.Users(ctx).Delete(ctx, userID)
}

// UserStats summarizes identities for the admin dashboard. Admin only.
func (s *Service) UserStats(ctx context.Context, actor *User) (Stats, error) {
	if !actor.IsAdmin() {
		return Stats{}, ErrForbidden
	}
	return s.store.Users(ctx).Stats(ctx)
}

// UserExists reports whether a username resolves to an identity. Used by
// the contract service when validating owner reassignment targets.
func (s *Service) UserExists(ctx context.Context, username string) (bool, error) {
	_, err := s.store.Users(ctx).FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PurgeExpiredRevocations drops ledger entries past their original expiry.
func (s *Service) PurgeExpiredRevocations(ctx context.Context) (int, error) {
	return s.store.Revocations(ctx).PurgeExpired(ctx, s.now().UTC())
}
