package notify

import (
	"context"
	"database/sql"
	"encoding/json"

	"loandesk.org/internal/contract"
)

// PGStore implements Store over PostgreSQL. Change sets are stored as a
// jsonb column.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

func (p *PGStore) Insert(ctx context.Context, n *Notification) error {
	changes, err := json.Marshal(n.Changes)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		insert into notifications (id, recipient, contract_number, edited_by, changes, is_read, created_at)
		values ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.Recipient, n.ContractNumber, n.EditedBy, changes, n.Read, n.CreatedAt)
	return err
}

func (p *PGStore) ListByRecipient(ctx context.Context, recipient string) ([]*Notification, error) {
	rows, err := p.db.QueryContext(ctx, `
		select id, recipient, contract_number, edited_by, changes, is_read, created_at
		from notifications
		where recipient = $1
		order by created_at desc, id desc`, recipient)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Notification
	for rows.Next() {
		var n Notification
		var raw []byte
		if err := rows.Scan(&n.ID, &n.Recipient, &n.ContractNumber, &n.EditedBy, &raw, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &n.Changes); err != nil {
				return nil, err
			}
		}
		if n.Changes == nil {
			n.Changes = map[string]contract.FieldChange{}
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (p *PGStore) CountUnread(ctx context.Context, recipient string) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx,
		`select count(*) from notifications where recipient = $1 and not is_read`, recipient).Scan(&n)
	return n, err
}

func (p *PGStore) MarkRead(ctx context.Context, recipient, id string) error {
	res, err := p.db.ExecContext(ctx,
		`update notifications set is_read = true where id = $1 and recipient = $2`, id, recipient)
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

func (p *PGStore) DeleteByRecipient(ctx context.Context, recipient string) (int, error) {
	res, err := p.db.ExecContext(ctx,
		`delete from notifications where recipient = $1`, recipient)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
