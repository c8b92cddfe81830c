package results

import (
	"context"
	"database/sql"
	"encoding/json"
)

// PGStore implements Store over PostgreSQL. Sessions go into
// processing_sessions, with rows as a jsonb payload in
// processing_results.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

func (p *PGStore) Insert(ctx context.Context, s *Session) error {
	rows, err := json.Marshal(s.Rows)
	if err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	_, err = tx.ExecContext(ctx, `
		insert into processing_sessions (id, username, name, row_count, created_at)
		values ($1, $2, $3, $4, $5)`,
		s.ID, s.Username, s.Name, s.RowCount, s.CreatedAt)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		insert into processing_results (session_id, rows)
		values ($1, $2)`,
		s.ID, rows)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (p *PGStore) ListByUsername(ctx context.Context, username string) ([]*Session, error) {
	rows, err := p.db.QueryContext(ctx, `
		select s.id, s.username, s.name, s.row_count, s.created_at, r.rows
		from processing_sessions s
		join processing_results r on r.session_id = s.id
		where s.username = $1
		order by s.created_at desc, s.id desc`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Session
	for rows.Next() {
		var s Session
		var raw []byte
		if err := rows.Scan(&s.ID, &s.Username, &s.Name, &s.RowCount, &s.CreatedAt, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &s.Rows); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Delete removes one of username's sessions. The result rows reference
// the session row, so they are deleted first; the ownership scope on the
// subquery keeps foreign sessions untouched.
func (p *PGStore) Delete(ctx context.Context, username, id string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `
		delete from processing_results
		where session_id in (
			select id from processing_sessions where id = $1 and username = $2)`,
		id, username); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`delete from processing_sessions where id = $1 and username = $2`, id, username)
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
	return tx.Commit()
}
