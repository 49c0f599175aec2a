package walletrepo

import (
	"context"
	"database/sql"

	"bookrider/model"
)

type Repo interface {
	// InsertTransaction writes the ledger entry inside the same tx as the
	// balance change it records.
	InsertTransaction(ctx context.Context, tx *sql.Tx, t *model.Transaction) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Transaction, error)
	// HasPayoutForOrder guards against paying a driver twice for one order.
	HasPayoutForOrder(ctx context.Context, tx *sql.Tx, orderID int64) (bool, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) InsertTransaction(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO transactions (user_id, order_id, amount, type)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at`,
		t.UserID, t.OrderID, t.Amount, t.Type,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *repo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, order_id, amount, type, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.OrderID, &t.Amount, &t.Type, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repo) HasPayoutForOrder(ctx context.Context, tx *sql.Tx, orderID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE order_id = $1 AND type = 'DRIVER_PAYOUT'
		)`
	var ok bool
	err := tx.QueryRowContext(ctx, q, orderID).Scan(&ok)
	return ok, err
}
