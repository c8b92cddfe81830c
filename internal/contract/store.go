package contract

import "context"

// Store persists contracts keyed by contract number.
type Store interface {
	// Create inserts a contract. Returns ErrAlreadyExists when the
	// number is taken.
	Create(ctx context.Context, c *Contract) error
	Get(ctx context.Context, number string) (*Contract, error)
	// List returns all contracts ordered by creation time. Visibility
	// filtering happens in the service, not here.
	List(ctx context.Context) ([]*Contract, error)
	// Save overwrites an existing contract.
	Save(ctx context.Context, c *Contract) error
	Delete(ctx context.Context, number string) error
}
