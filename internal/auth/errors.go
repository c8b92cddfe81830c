package auth

import "errors"

// Sentinel errors surfaced by the auth subsystem. The HTTP boundary maps
// each of them to a stable reason code so clients can tell Expired from
// Revoked from UnknownSubject.
var (
	ErrMalformedCredential = errors.New("auth: malformed credential")
	ErrInvalidSignature    = errors.New("auth: invalid token signature")
	ErrTokenExpired        = errors.New("auth: token expired")
	ErrRevoked             = errors.New("auth: token revoked")
	ErrAlreadyRevoked      = errors.New("auth: token already revoked")
	ErrUnknownSubject      = errors.New("auth: unknown subject")
	ErrInactiveAccount     = errors.New("auth: inactive account")
	ErrInvalidCredentials  = errors.New("auth: invalid credentials")
	ErrForbidden           = errors.New("auth: forbidden")
	ErrNotFound            = errors.New("auth: not found")
	ErrAlreadyExists       = errors.New("auth: already exists")
	ErrInvalidInput        = errors.New("auth: invalid input")
)
