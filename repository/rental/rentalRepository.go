package rentalrepo

import (
	"context"
	"database/sql"
	"errors"

	"bookrider/model"
)

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, rent *model.Rental) error

	// ByID returns (nil, nil) when the rental does not exist.
	ByID(ctx context.Context, id int64) (*model.Rental, error)
	ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Rental, error)

	// SumReturned is the cumulative returned quantity across every return
	// item that references the rental.
	SumReturned(ctx context.Context, tx *sql.Tx, rentalID int64) (int, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, rentalID int64, status model.RentalStatus) error

	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Rental, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const rentalCols = `id, user_id, book_id, library_id, order_id, quantity, status, return_deadline, created_at`

func scanRental(row interface{ Scan(...any) error }) (*model.Rental, error) {
	rent := &model.Rental{}
	err := row.Scan(&rent.ID, &rent.UserID, &rent.BookID, &rent.LibraryID, &rent.OrderID,
		&rent.Quantity, &rent.Status, &rent.ReturnDeadline, &rent.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rent, nil
}

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, rent *model.Rental) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO rentals (user_id, book_id, library_id, order_id, quantity, status, return_deadline)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at`,
		rent.UserID, rent.BookID, rent.LibraryID, rent.OrderID,
		rent.Quantity, rent.Status, rent.ReturnDeadline,
	).Scan(&rent.ID, &rent.CreatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Rental, error) {
	rent, err := scanRental(r.db.QueryRowContext(ctx,
		`SELECT `+rentalCols+` FROM rentals WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rent, err
}

func (r *repo) ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Rental, error) {
	rent, err := scanRental(tx.QueryRowContext(ctx,
		`SELECT `+rentalCols+` FROM rentals WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rent, err
}

func (r *repo) SumReturned(ctx context.Context, tx *sql.Tx, rentalID int64) (int, error) {
	const q = `
		SELECT COALESCE(sum(returned_quantity), 0)
		FROM rental_return_items
		WHERE rental_id = $1`
	var n int
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, q, rentalID).Scan(&n)
	} else {
		err = r.db.QueryRowContext(ctx, q, rentalID).Scan(&n)
	}
	return n, err
}

func (r *repo) UpdateStatus(ctx context.Context, tx *sql.Tx, rentalID int64, status model.RentalStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE rentals SET status = $2 WHERE id = $1`, rentalID, status)
	return err
}

func (r *repo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Rental, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+rentalCols+`
		FROM rentals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Rental
	for rows.Next() {
		rent, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rent)
	}
	return out, rows.Err()
}
