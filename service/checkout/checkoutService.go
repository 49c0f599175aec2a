package checkoutsvc

import (
	"context"
	"database/sql"

	"bookrider/model"
	"bookrider/service/svcerr"
)

const (
	ErrEmptyCart           svcerr.Code = "EMPTY_CART"
	ErrInsufficientBalance svcerr.Code = "INSUFFICIENT_BALANCE"
	ErrMissingAddress      svcerr.Code = "MISSING_ADDRESS"
)

type CartRepo interface {
	GetOrCreate(ctx context.Context, tx *sql.Tx, userID int64) (*model.ShoppingCart, error)
	ItemsWithSubItems(ctx context.Context, tx *sql.Tx, cartID int64) ([]model.CartItem, error)
	Clear(ctx context.Context, tx *sql.Tx, cartID int64) error
}

type UserRepo interface {
	ByID(ctx context.Context, id int64) (*model.User, error)
	LockBalance(ctx context.Context, tx *sql.Tx, userID int64) (float64, error)
}

type CatalogRepo interface {
	LibraryByID(ctx context.Context, id int64) (*model.Library, error)
}

type OrderRepo interface {
	Insert(ctx context.Context, tx *sql.Tx, o *model.Order) error
	InsertItem(ctx context.Context, tx *sql.Tx, item *model.OrderItem) error
	MarkPaymentCompleted(ctx context.Context, tx *sql.Tx, orderID int64) error
}

type Payer interface {
	Pay(ctx context.Context, tx *sql.Tx, userID, orderID int64, amount float64) error
}

type Service interface {
	// Checkout turns each cart item into one paid order per library and
	// clears the cart, all in one transaction. Empty cart and insufficient
	// balance reject before any write.
	Checkout(ctx context.Context, userID int64) ([]model.Order, error)
}

type service struct {
	db      *sql.DB
	carts   CartRepo
	users   UserRepo
	catalog CatalogRepo
	orders  OrderRepo
	ledger  Payer
}

func New(db *sql.DB, carts CartRepo, users UserRepo, catalog CatalogRepo,
	orders OrderRepo, ledger Payer) Service {
	return &service{db: db, carts: carts, users: users, catalog: catalog, orders: orders, ledger: ledger}
}

func (s *service) Checkout(ctx context.Context, userID int64) (out []model.Order, err error) {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.DeliveryAddressID == nil {
		return nil, svcerr.New(ErrMissingAddress)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// the user row lock serializes concurrent checkouts between the balance
	// pre-check and the debits
	balance, err := s.users.LockBalance(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetOrCreate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.carts.ItemsWithSubItems(ctx, tx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		err = svcerr.New(ErrEmptyCart)
		return nil, err
	}

	var total float64
	for _, it := range items {
		total += it.DeliveryCost
	}
	if balance < total {
		err = svcerr.New(ErrInsufficientBalance)
		return nil, err
	}

	for _, it := range items {
		lib, lerr := s.catalog.LibraryByID(ctx, it.LibraryID)
		if lerr != nil {
			err = lerr
			return nil, err
		}

		order := &model.Order{
			UserID:               userID,
			LibraryID:            it.LibraryID,
			PickupAddressID:      lib.AddressID,
			DestinationAddressID: *user.DeliveryAddressID,
			Kind:                 model.OrderDelivery,
			Amount:               it.DeliveryCost,
			Status:               model.OrderPending,
			PaymentStatus:        model.PaymentPending,
		}
		if err = s.orders.Insert(ctx, tx, order); err != nil {
			return nil, err
		}
		for _, sub := range it.SubItems {
			oi := model.OrderItem{OrderID: order.ID, BookID: sub.BookID, Quantity: sub.Quantity}
			if err = s.orders.InsertItem(ctx, tx, &oi); err != nil {
				return nil, err
			}
			order.Items = append(order.Items, oi)
		}

		if err = s.ledger.Pay(ctx, tx, userID, order.ID, order.Amount); err != nil {
			return nil, err
		}
		if err = s.orders.MarkPaymentCompleted(ctx, tx, order.ID); err != nil {
			return nil, err
		}
		order.PaymentStatus = model.PaymentCompleted
		out = append(out, *order)
	}

	if err = s.carts.Clear(ctx, tx, cart.ID); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}
