package userrepo

import (
	"context"
	"database/sql"

	"bookrider/model"
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)

	// LockBalance reads the balance under FOR UPDATE so concurrent checkouts
	// by the same user serialize on the row.
	LockBalance(ctx context.Context, tx *sql.Tx, userID int64) (float64, error)
	// AdjustBalance applies a signed delta in one statement; callers validate
	// sufficiency beforehand under LockBalance.
	AdjustBalance(ctx context.Context, tx *sql.Tx, userID int64, delta float64) error

	SetDeliveryAddress(ctx context.Context, userID, addressID int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, u *model.User) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO users(first_name, last_name, email, username, password_hash, role)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`,
		u.FirstName, u.LastName, u.Email, u.Username, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, username, password_hash, role,
		       balance, delivery_address_id, created_at
		FROM users
		WHERE lower(email) = lower($1)`,
		email,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.Balance, &u.DeliveryAddressID, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.User, error) {
	u := &model.User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, username, password_hash, role,
		       balance, delivery_address_id, created_at
		FROM users
		WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.Balance, &u.DeliveryAddressID, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) LockBalance(ctx context.Context, tx *sql.Tx, userID int64) (float64, error) {
	const q = `
		SELECT balance
		FROM users
		WHERE id = $1
		FOR UPDATE`
	var bal float64
	err := tx.QueryRowContext(ctx, q, userID).Scan(&bal)
	return bal, err
}

func (r *repo) AdjustBalance(ctx context.Context, tx *sql.Tx, userID int64, delta float64) error {
	const q = `UPDATE users SET balance = balance + $2 WHERE id = $1`
	res, err := tx.ExecContext(ctx, q, userID, delta)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) SetDeliveryAddress(ctx context.Context, userID, addressID int64) error {
	const q = `UPDATE users SET delivery_address_id = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, userID, addressID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
