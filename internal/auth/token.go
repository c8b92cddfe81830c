package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTTL is the fixed validity window of a session token.
const DefaultAccessTTL = 30 * time.Minute

// Claims is the signed assertion carried by a session token. The jti
// claim is the token identifier used by the revocation ledger.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer mints and verifies HS256 session tokens using a symmetric key
// held only by the server process.
type Issuer struct {
	secret []byte
	name   string
	ttl    time.Duration
	now    func() time.Time
}

// IssuerOption configures Issuer behavior.
type IssuerOption func(*Issuer)

// WithAccessTTL overrides the token validity window.
func WithAccessTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithIssuerName sets the iss claim embedded into tokens.
func WithIssuerName(name string) IssuerOption {
	return func(i *Issuer) {
		i.name = strings.TrimSpace(name)
	}
}

// WithIssuerClock overrides the time source (useful for tests).
func WithIssuerClock(fn func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if fn != nil {
			i.now = fn
		}
	}
}

// NewIssuer constructs an Issuer. The secret must be non-empty; a missing
// secret is a deployment misconfiguration, not a runtime condition.
func NewIssuer(secret string, opts ...IssuerOption) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	iss := &Issuer{
		secret: []byte(secret),
		name:   "loandesk",
		ttl:    DefaultAccessTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(iss)
	}
	return iss, nil
}

// Issue mints a signed token for the given subject. The signature covers
// subject and both timestamps, so tampering with any field invalidates it.
func (i *Issuer) Issue(subject string) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, errors.New("auth: subject is required")
	}
	now := i.now().UTC()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.name,
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature integrity first, then expiry. It never consults
// the revocation ledger; that layering belongs to the session validator.
func (i *Issuer) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMalformedCredential
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidSignature
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedCredential
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrInvalidSignature
		}
	}
	if !parsed.Valid {
		return nil, ErrInvalidSignature
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.ID == "" ||
		claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrInvalidSignature
	}
	return claims, nil
}

// PeekID extracts the token identifier without verifying the signature.
// Safe only for the revocation pre-check: a forged jti either matches a
// revoked entry (rejected) or fails signature verification right after.
func PeekID(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMalformedCredential
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", ErrMalformedCredential
	}
	if claims.ID == "" {
		return "", ErrMalformedCredential
	}
	return claims.ID, nil
}
