package ledger

import (
	"context"
	"database/sql"
)

// PGStore implements Store on Postgres. The Debit guard (`credits > 0` in the
// UPDATE predicate) and the plain increment in Credit keep both operations atomic
// per row, so concurrent commands from the same user cannot drive the balance
// negative or double-spend the last credit.
type PGStore struct {
	DB *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore { return &PGStore{DB: db} }

func (s *PGStore) Get(ctx context.Context, id string) (*Account, error) {
	var a Account
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, credits, last_reset_month FROM accounts WHERE id=$1`, id).
		Scan(&a.ID, &a.Credits, &a.LastResetMonth)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PGStore) Create(ctx context.Context, a Account) error {
	// ON CONFLICT DO NOTHING: two first-ever commands racing both see "absent";
	// the loser keeps the winner's row instead of erroring.
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO accounts (id, credits, last_reset_month, created_at) VALUES ($1,$2,$3,NOW())
		 ON CONFLICT (id) DO NOTHING`,
		a.ID, a.Credits, a.LastResetMonth)
	return err
}

func (s *PGStore) Reset(ctx context.Context, id string, credits, month int) error {
	// Guarded on last_reset_month so concurrent rollovers in the same month apply once.
	_, err := s.DB.ExecContext(ctx,
		`UPDATE accounts SET credits=$1, last_reset_month=$2, updated_at=NOW()
		 WHERE id=$3 AND last_reset_month <> $2`,
		credits, month, id)
	return err
}

func (s *PGStore) Debit(ctx context.Context, id string) (int, bool, error) {
	var remaining int
	err := s.DB.QueryRowContext(ctx,
		`UPDATE accounts SET credits = credits - 1, updated_at=NOW()
		 WHERE id=$1 AND credits > 0
		 RETURNING credits`, id).Scan(&remaining)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return remaining, true, nil
}

func (s *PGStore) Credit(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE accounts SET credits = credits + 1, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
