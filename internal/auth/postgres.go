package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"loandesk.org/internal/ids"
)

// PGStore implements Store over PostgreSQL via database/sql.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

// Users returns the identity store.
func (p *PGStore) Users(context.Context) UserStore { return &pgUsers{db: p.db} }

// Revocations returns the revocation ledger.
func (p *PGStore) Revocations(context.Context) Ledger { return &pgLedger{db: p.db} }

type pgUsers struct {
	db *sql.DB
}

const userColumns = `id, username, email, password_hash, full_name, is_active, role, created_at, last_login`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var fullName sql.NullString
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &fullName, &u.Active, &u.Role, &u.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.DisplayName = fullName.String
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

func (s *pgUsers) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	res, err := s.db.ExecContext(ctx, `
		insert into users (id, username, email, password_hash, full_name, is_active, role, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		on conflict do nothing`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.DisplayName, u.Active, u.Role, u.CreatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: username or email taken", ErrAlreadyExists)
	}
	return nil
}

// firstAdminLock keys the advisory lock serializing first-admin claims.
const firstAdminLock = 7201

// CreateFirstAdmin inserts an admin identity only while no admin row
// exists. A transaction-scoped advisory lock serializes concurrent
// claims; exactly one wins, the rest get ErrForbidden.
func (s *pgUsers) CreateFirstAdmin(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `select pg_advisory_xact_lock($1)`, firstAdminLock); err != nil {
		return err
	}
	var admins int
	if err := tx.QueryRowContext(ctx,
		`select count(*) from users where role = $1`, RoleAdmin).Scan(&admins); err != nil {
		return err
	}
	if admins > 0 {
		return ErrForbidden
	}
	res, err := tx.ExecContext(ctx, `
		insert into users (id, username, email, password_hash, full_name, is_active, role, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		on conflict do nothing`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.DisplayName, u.Active, u.Role, u.CreatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: username or email taken", ErrAlreadyExists)
	}
	return tx.Commit()
}

func (s *pgUsers) FindByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id = $1`, id)
	return scanUser(row)
}

func (s *pgUsers) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where username = $1`, username)
	return scanUser(row)
}

func (s *pgUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where email = $1`, email)
	return scanUser(row)
}

func (s *pgUsers) List(ctx context.Context, role string) ([]*User, error) {
	query := `select ` + userColumns + ` from users`
	args := []any{}
	if role != "" {
		query += ` where role = $1`
		args = append(args, role)
	}
	query += ` order by created_at`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *pgUsers) Update(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		update users set
			email         = coalesce($2, email),
			password_hash = coalesce($3, password_hash),
			full_name     = coalesce($4, full_name),
			is_active     = coalesce($5, is_active),
			role          = coalesce($6, role)
		where id = $1
		returning `+userColumns,
		id, upd.Email, upd.Password, upd.DisplayName, upd.Active, upd.Role)
	return scanUser(row)
}

// Delete removes the user plus their contracts and notifications in one
// transaction.
func (s *pgUsers) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var username string
	err = tx.QueryRowContext(ctx, `select username from users where id = $1`, id).Scan(&username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `delete from notifications where recipient = $1`, username); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `delete from loan_contracts where owner_username = $1`, username); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `delete from users where id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *pgUsers) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `update users set last_login = $2 where id = $1`, id, at)
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

func (s *pgUsers) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		select count(*),
		       count(*) filter (where is_active),
		       count(*) filter (where role = 'admin'),
		       count(*) filter (where role <> 'admin')
		from users`).Scan(&st.TotalUsers, &st.ActiveUsers, &st.AdminUsers, &st.RegularUsers)
	return st, err
}

type pgLedger struct {
	db *sql.DB
}

func (l *pgLedger) Revoke(ctx context.Context, entry RevocationEntry) error {
	res, err := l.db.ExecContext(ctx, `
		insert into token_revocations (token_id, subject, revoked_at, original_expires_at)
		values ($1, $2, $3, $4)
		on conflict (token_id) do nothing`,
		entry.TokenID, entry.Subject, entry.RevokedAt, entry.OriginalExpiresAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyRevoked
	}
	return nil
}

func (l *pgLedger) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx,
		`select exists(select 1 from token_revocations where token_id = $1)`, tokenID).Scan(&exists)
	return exists, err
}

func (l *pgLedger) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := l.db.ExecContext(ctx,
		`delete from token_revocations where original_expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
