package contract

import "errors"

var (
	// ErrNotFound is returned both for contracts that do not exist and
	// for contracts the caller is not allowed to touch, so the two are
	// indistinguishable over the API.
	ErrNotFound      = errors.New("contract: not found")
	ErrAlreadyExists = errors.New("contract: already exists")
	ErrInvalidInput  = errors.New("contract: invalid input")
	ErrForbidden     = errors.New("contract: forbidden")
)
