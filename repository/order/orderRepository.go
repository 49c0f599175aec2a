package orderrepo

import (
	"context"
	"database/sql"
	"errors"

	"bookrider/model"
)

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, o *model.Order) error
	InsertItem(ctx context.Context, tx *sql.Tx, item *model.OrderItem) error

	// ByID returns (nil, nil) when the order does not exist.
	ByID(ctx context.Context, id int64) (*model.Order, error)
	// ByIDForUpdate locks the order row for a status transition.
	ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Order, error)
	ItemsByOrder(ctx context.Context, tx *sql.Tx, orderID int64) ([]model.OrderItem, error)

	MarkPaymentCompleted(ctx context.Context, tx *sql.Tx, orderID int64) error
	MarkAccepted(ctx context.Context, tx *sql.Tx, orderID, driverID int64) error
	MarkInTransit(ctx context.Context, tx *sql.Tx, orderID int64) error
	MarkDelivered(ctx context.Context, tx *sql.Tx, orderID int64) error

	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Order, error)
	ListPending(ctx context.Context, limit, offset int) ([]model.Order, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const orderCols = `id, user_id, library_id, driver_id, pickup_address_id,
	destination_address_id, kind, amount, status, payment_status,
	accepted_at, picked_up_at, delivered_at, created_at`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(&o.ID, &o.UserID, &o.LibraryID, &o.DriverID, &o.PickupAddressID,
		&o.DestinationAddressID, &o.Kind, &o.Amount, &o.Status, &o.PaymentStatus,
		&o.AcceptedAt, &o.PickedUpAt, &o.DeliveredAt, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, library_id, pickup_address_id,
			destination_address_id, kind, amount, status, payment_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at`,
		o.UserID, o.LibraryID, o.PickupAddressID, o.DestinationAddressID,
		o.Kind, o.Amount, o.Status, o.PaymentStatus,
	).Scan(&o.ID, &o.CreatedAt)
}

func (r *repo) InsertItem(ctx context.Context, tx *sql.Tx, item *model.OrderItem) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, book_id, quantity)
		VALUES ($1,$2,$3)
		RETURNING id`,
		item.OrderID, item.BookID, item.Quantity,
	).Scan(&item.ID)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (r *repo) ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Order, error) {
	o, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (r *repo) ItemsByOrder(ctx context.Context, tx *sql.Tx, orderID int64) ([]model.OrderItem, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, order_id, book_id, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.BookID, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repo) MarkPaymentCompleted(ctx context.Context, tx *sql.Tx, orderID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE orders SET payment_status = 'COMPLETED' WHERE id = $1`, orderID)
	return err
}

func (r *repo) MarkAccepted(ctx context.Context, tx *sql.Tx, orderID, driverID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = 'DRIVER_ACCEPTED', driver_id = $2, accepted_at = now()
		WHERE id = $1`,
		orderID, driverID)
	return err
}

func (r *repo) MarkInTransit(ctx context.Context, tx *sql.Tx, orderID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = 'IN_TRANSIT', picked_up_at = now()
		WHERE id = $1`,
		orderID)
	return err
}

func (r *repo) MarkDelivered(ctx context.Context, tx *sql.Tx, orderID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = 'DELIVERED', delivered_at = now()
		WHERE id = $1`,
		orderID)
	return err
}

func (r *repo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Order, error) {
	return r.list(ctx, `SELECT `+orderCols+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
}

func (r *repo) ListPending(ctx context.Context, limit, offset int) ([]model.Order, error) {
	return r.list(ctx, `SELECT `+orderCols+`
		FROM orders
		WHERE status = 'PENDING' AND payment_status = 'COMPLETED'
		ORDER BY created_at
		LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *repo) list(ctx context.Context, q string, args ...any) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}
