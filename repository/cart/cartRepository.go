package cartrepo

import (
	"context"
	"database/sql"
	"errors"

	"bookrider/model"
)

type Repo interface {
	// GetOrCreate returns the user's cart, creating an empty one on first use.
	GetOrCreate(ctx context.Context, tx *sql.Tx, userID int64) (*model.ShoppingCart, error)
	// Full loads the cart with items and sub-items for responses. Returns an
	// empty cart struct (ID 0) when the user has none yet.
	Full(ctx context.Context, userID int64) (*model.ShoppingCart, error)

	ItemForLibrary(ctx context.Context, tx *sql.Tx, cartID, libraryID int64) (*model.CartItem, error)
	InsertItem(ctx context.Context, tx *sql.Tx, item *model.CartItem) error
	UpdateItemCost(ctx context.Context, tx *sql.Tx, itemID int64, cost float64) error
	DeleteItem(ctx context.Context, tx *sql.Tx, itemID int64) error

	SubItemForBook(ctx context.Context, tx *sql.Tx, itemID, bookID int64) (*model.CartSubItem, error)
	// SubItemOwned fetches a sub-item together with its parent item, only if
	// the enclosing cart belongs to userID. (nil, nil, nil) when absent.
	SubItemOwned(ctx context.Context, tx *sql.Tx, subItemID, userID int64) (*model.CartSubItem, *model.CartItem, error)
	InsertSubItem(ctx context.Context, tx *sql.Tx, sub *model.CartSubItem) error
	UpdateSubItemQuantity(ctx context.Context, tx *sql.Tx, subItemID int64, quantity int) error
	DeleteSubItem(ctx context.Context, tx *sql.Tx, subItemID int64) error

	CountSubItems(ctx context.Context, tx *sql.Tx, itemID int64) (int, error)
	SumSubItemQuantities(ctx context.Context, tx *sql.Tx, itemID int64) (int, error)
	SumItemCosts(ctx context.Context, tx *sql.Tx, cartID int64) (float64, error)
	SetCartTotal(ctx context.Context, tx *sql.Tx, cartID int64, total float64) error

	// ItemsWithSubItems loads every item (and its sub-items) inside the
	// checkout transaction.
	ItemsWithSubItems(ctx context.Context, tx *sql.Tx, cartID int64) ([]model.CartItem, error)
	// Clear removes all items (sub-items cascade) and zeroes the total.
	Clear(ctx context.Context, tx *sql.Tx, cartID int64) error

	// HasLibraryBookPair reports whether the user's cart already holds this
	// exact library+book pair (the quote engine's discount condition).
	HasLibraryBookPair(ctx context.Context, userID, libraryID, bookID int64) (bool, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) GetOrCreate(ctx context.Context, tx *sql.Tx, userID int64) (*model.ShoppingCart, error) {
	c := &model.ShoppingCart{UserID: userID}
	err := tx.QueryRowContext(ctx, `
		SELECT id, total_delivery_cost
		FROM shopping_carts
		WHERE user_id = $1
		FOR UPDATE`,
		userID,
	).Scan(&c.ID, &c.TotalDeliveryCost)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO shopping_carts (user_id) VALUES ($1)
			RETURNING id`,
			userID,
		).Scan(&c.ID)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repo) Full(ctx context.Context, userID int64) (*model.ShoppingCart, error) {
	c := &model.ShoppingCart{UserID: userID}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, total_delivery_cost
		FROM shopping_carts
		WHERE user_id = $1`,
		userID,
	).Scan(&c.ID, &c.TotalDeliveryCost)
	if errors.Is(err, sql.ErrNoRows) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.cart_id, i.library_id, i.delivery_cost, i.distance_km,
		       s.id, s.item_id, s.book_id, s.quantity
		FROM shopping_cart_items i
		LEFT JOIN shopping_cart_sub_items s ON s.item_id = i.id
		WHERE i.cart_id = $1
		ORDER BY i.id, s.id`,
		c.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := map[int64]int{}
	for rows.Next() {
		var it model.CartItem
		var subID, subItemID, subBookID sql.NullInt64
		var subQty sql.NullInt64
		if err := rows.Scan(&it.ID, &it.CartID, &it.LibraryID, &it.DeliveryCost, &it.DistanceKm,
			&subID, &subItemID, &subBookID, &subQty); err != nil {
			return nil, err
		}
		idx, seen := byID[it.ID]
		if !seen {
			c.Items = append(c.Items, it)
			idx = len(c.Items) - 1
			byID[it.ID] = idx
		}
		if subID.Valid {
			c.Items[idx].SubItems = append(c.Items[idx].SubItems, model.CartSubItem{
				ID:       subID.Int64,
				ItemID:   subItemID.Int64,
				BookID:   subBookID.Int64,
				Quantity: int(subQty.Int64),
			})
		}
	}
	return c, rows.Err()
}

func (r *repo) ItemForLibrary(ctx context.Context, tx *sql.Tx, cartID, libraryID int64) (*model.CartItem, error) {
	it := &model.CartItem{}
	err := tx.QueryRowContext(ctx, `
		SELECT id, cart_id, library_id, delivery_cost, distance_km
		FROM shopping_cart_items
		WHERE cart_id = $1 AND library_id = $2`,
		cartID, libraryID,
	).Scan(&it.ID, &it.CartID, &it.LibraryID, &it.DeliveryCost, &it.DistanceKm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *repo) InsertItem(ctx context.Context, tx *sql.Tx, item *model.CartItem) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO shopping_cart_items (cart_id, library_id, delivery_cost, distance_km)
		VALUES ($1,$2,$3,$4)
		RETURNING id`,
		item.CartID, item.LibraryID, item.DeliveryCost, item.DistanceKm,
	).Scan(&item.ID)
}

func (r *repo) UpdateItemCost(ctx context.Context, tx *sql.Tx, itemID int64, cost float64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE shopping_cart_items SET delivery_cost = $2 WHERE id = $1`, itemID, cost)
	return err
}

func (r *repo) DeleteItem(ctx context.Context, tx *sql.Tx, itemID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM shopping_cart_items WHERE id = $1`, itemID)
	return err
}

func (r *repo) SubItemForBook(ctx context.Context, tx *sql.Tx, itemID, bookID int64) (*model.CartSubItem, error) {
	s := &model.CartSubItem{}
	err := tx.QueryRowContext(ctx, `
		SELECT id, item_id, book_id, quantity
		FROM shopping_cart_sub_items
		WHERE item_id = $1 AND book_id = $2`,
		itemID, bookID,
	).Scan(&s.ID, &s.ItemID, &s.BookID, &s.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repo) SubItemOwned(ctx context.Context, tx *sql.Tx, subItemID, userID int64) (*model.CartSubItem, *model.CartItem, error) {
	s := &model.CartSubItem{}
	it := &model.CartItem{}
	err := tx.QueryRowContext(ctx, `
		SELECT s.id, s.item_id, s.book_id, s.quantity,
		       i.id, i.cart_id, i.library_id, i.delivery_cost, i.distance_km
		FROM shopping_cart_sub_items s
		JOIN shopping_cart_items i ON i.id = s.item_id
		JOIN shopping_carts c ON c.id = i.cart_id
		WHERE s.id = $1 AND c.user_id = $2`,
		subItemID, userID,
	).Scan(&s.ID, &s.ItemID, &s.BookID, &s.Quantity,
		&it.ID, &it.CartID, &it.LibraryID, &it.DeliveryCost, &it.DistanceKm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return s, it, nil
}

func (r *repo) InsertSubItem(ctx context.Context, tx *sql.Tx, sub *model.CartSubItem) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO shopping_cart_sub_items (item_id, book_id, quantity)
		VALUES ($1,$2,$3)
		RETURNING id`,
		sub.ItemID, sub.BookID, sub.Quantity,
	).Scan(&sub.ID)
}

func (r *repo) UpdateSubItemQuantity(ctx context.Context, tx *sql.Tx, subItemID int64, quantity int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE shopping_cart_sub_items SET quantity = $2 WHERE id = $1`, subItemID, quantity)
	return err
}

func (r *repo) DeleteSubItem(ctx context.Context, tx *sql.Tx, subItemID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM shopping_cart_sub_items WHERE id = $1`, subItemID)
	return err
}

func (r *repo) CountSubItems(ctx context.Context, tx *sql.Tx, itemID int64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM shopping_cart_sub_items WHERE item_id = $1`, itemID).Scan(&n)
	return n, err
}

func (r *repo) SumSubItemQuantities(ctx context.Context, tx *sql.Tx, itemID int64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(sum(quantity), 0) FROM shopping_cart_sub_items WHERE item_id = $1`, itemID).Scan(&n)
	return n, err
}

func (r *repo) SumItemCosts(ctx context.Context, tx *sql.Tx, cartID int64) (float64, error) {
	var total float64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(sum(delivery_cost), 0) FROM shopping_cart_items WHERE cart_id = $1`, cartID).Scan(&total)
	return total, err
}

func (r *repo) SetCartTotal(ctx context.Context, tx *sql.Tx, cartID int64, total float64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE shopping_carts SET total_delivery_cost = $2 WHERE id = $1`, cartID, total)
	return err
}

func (r *repo) ItemsWithSubItems(ctx context.Context, tx *sql.Tx, cartID int64) ([]model.CartItem, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT i.id, i.cart_id, i.library_id, i.delivery_cost, i.distance_km,
		       s.id, s.item_id, s.book_id, s.quantity
		FROM shopping_cart_items i
		JOIN shopping_cart_sub_items s ON s.item_id = i.id
		WHERE i.cart_id = $1
		ORDER BY i.id, s.id`,
		cartID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CartItem
	byID := map[int64]int{}
	for rows.Next() {
		var it model.CartItem
		var s model.CartSubItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.LibraryID, &it.DeliveryCost, &it.DistanceKm,
			&s.ID, &s.ItemID, &s.BookID, &s.Quantity); err != nil {
			return nil, err
		}
		idx, seen := byID[it.ID]
		if !seen {
			out = append(out, it)
			idx = len(out) - 1
			byID[it.ID] = idx
		}
		out[idx].SubItems = append(out[idx].SubItems, s)
	}
	return out, rows.Err()
}

func (r *repo) Clear(ctx context.Context, tx *sql.Tx, cartID int64) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM shopping_cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE shopping_carts SET total_delivery_cost = 0 WHERE id = $1`, cartID)
	return err
}

func (r *repo) HasLibraryBookPair(ctx context.Context, userID, libraryID, bookID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM shopping_carts c
			JOIN shopping_cart_items i ON i.cart_id = c.id
			JOIN shopping_cart_sub_items s ON s.item_id = i.id
			WHERE c.user_id = $1 AND i.library_id = $2 AND s.book_id = $3
		)`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, userID, libraryID, bookID).Scan(&ok)
	return ok, err
}
