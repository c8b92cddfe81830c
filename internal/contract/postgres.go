package contract

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGStore implements Store over PostgreSQL via database/sql.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

const contractColumns = `contract_number, customer_name, loan_amount, interest_rate, loan_duration,
	status, email, phone, description, owner_username, created_at, updated_at`

func scanContract(row interface{ Scan(...any) error }) (*Contract, error) {
	var c Contract
	var email, phone, description, owner sql.NullString
	err := row.Scan(&c.Number, &c.CustomerName, &c.Amount, &c.InterestRate, &c.DurationMonths,
		&c.Status, &email, &phone, &description, &owner, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Email = email.String
	c.Phone = phone.String
	c.Description = description.String
	c.Owner = owner.String
	return &c, nil
}

func (p *PGStore) Create(ctx context.Context, c *Contract) error {
	res, err := p.db.ExecContext(ctx, `
		insert into loan_contracts (contract_number, customer_name, loan_amount, interest_rate,
			loan_duration, status, email, phone, description, owner_username, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		on conflict (contract_number) do nothing`,
		c.Number, c.CustomerName, c.Amount, c.InterestRate, c.DurationMonths,
		c.Status, c.Email, c.Phone, c.Description, c.Owner, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, c.Number)
	}
	return nil
}

func (p *PGStore) Get(ctx context.Context, number string) (*Contract, error) {
	row := p.db.QueryRowContext(ctx,
		`select `+contractColumns+` from loan_contracts where contract_number = $1`, number)
	return scanContract(row)
}

func (p *PGStore) List(ctx context.Context) ([]*Contract, error) {
	rows, err := p.db.QueryContext(ctx,
		`select `+contractColumns+` from loan_contracts order by created_at, contract_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *PGStore) Save(ctx context.Context, c *Contract) error {
	res, err := p.db.ExecContext(ctx, `
		update loan_contracts set
			customer_name = $2, loan_amount = $3, interest_rate = $4, loan_duration = $5,
			status = $6, email = $7, phone = $8, description = $9, owner_username = $10,
			updated_at = $11
		where contract_number = $1`,
		c.Number, c.CustomerName, c.Amount, c.InterestRate, c.DurationMonths,
		c.Status, c.Email, c.Phone, c.Description, c.Owner, c.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PGStore) Delete(ctx context.Context, number string) error {
	res, err := p.db.ExecContext(ctx,
		`delete from loan_contracts where contract_number = $1`, number)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
