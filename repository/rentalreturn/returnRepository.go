package returnrepo

import (
	"context"
	"database/sql"
	"errors"

	"bookrider/model"
)

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, rr *model.RentalReturn) error
	InsertItem(ctx context.Context, tx *sql.Tx, item *model.RentalReturnItem) error

	// ByID returns (nil, nil) when absent; items are loaded alongside.
	ByID(ctx context.Context, id int64) (*model.RentalReturn, error)
	ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.RentalReturn, error)
	Items(ctx context.Context, tx *sql.Tx, returnID int64) ([]model.RentalReturnItem, error)

	UpdateStatus(ctx context.Context, tx *sql.Tx, returnID int64, status model.RentalReturnStatus) error

	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.RentalReturn, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const returnCols = `id, user_id, library_id, order_id, status, late_fee, created_at`

func scanReturn(row interface{ Scan(...any) error }) (*model.RentalReturn, error) {
	rr := &model.RentalReturn{}
	err := row.Scan(&rr.ID, &rr.UserID, &rr.LibraryID, &rr.OrderID, &rr.Status, &rr.LateFee, &rr.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rr, nil
}

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, rr *model.RentalReturn) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO rental_returns (user_id, library_id, order_id, status, late_fee)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`,
		rr.UserID, rr.LibraryID, rr.OrderID, rr.Status, rr.LateFee,
	).Scan(&rr.ID, &rr.CreatedAt)
}

func (r *repo) InsertItem(ctx context.Context, tx *sql.Tx, item *model.RentalReturnItem) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO rental_return_items (rental_return_id, rental_id, book_id, returned_quantity)
		VALUES ($1,$2,$3,$4)
		RETURNING id`,
		item.RentalReturnID, item.RentalID, item.BookID, item.ReturnedQuantity,
	).Scan(&item.ID)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.RentalReturn, error) {
	rr, err := scanReturn(r.db.QueryRowContext(ctx,
		`SELECT `+returnCols+` FROM rental_returns WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rr.Items, err = r.items(ctx, r.db.QueryContext, id)
	return rr, err
}

func (r *repo) ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.RentalReturn, error) {
	rr, err := scanReturn(tx.QueryRowContext(ctx,
		`SELECT `+returnCols+` FROM rental_returns WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rr, err
}

func (r *repo) Items(ctx context.Context, tx *sql.Tx, returnID int64) ([]model.RentalReturnItem, error) {
	return r.items(ctx, tx.QueryContext, returnID)
}

type queryFn func(ctx context.Context, query string, args ...any) (*sql.Rows, error)

func (r *repo) items(ctx context.Context, query queryFn, returnID int64) ([]model.RentalReturnItem, error) {
	rows, err := query(ctx, `
		SELECT id, rental_return_id, rental_id, book_id, returned_quantity
		FROM rental_return_items
		WHERE rental_return_id = $1
		ORDER BY id`,
		returnID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RentalReturnItem
	for rows.Next() {
		var it model.RentalReturnItem
		if err := rows.Scan(&it.ID, &it.RentalReturnID, &it.RentalID, &it.BookID, &it.ReturnedQuantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repo) UpdateStatus(ctx context.Context, tx *sql.Tx, returnID int64, status model.RentalReturnStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE rental_returns SET status = $2 WHERE id = $1`, returnID, status)
	return err
}

func (r *repo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.RentalReturn, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+returnCols+`
		FROM rental_returns
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RentalReturn
	for rows.Next() {
		rr, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rr)
	}
	return out, rows.Err()
}
