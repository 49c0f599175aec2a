package ordersvc

import (
	"context"
	"database/sql"

	"bookrider/model"
	"bookrider/service/svcerr"
)

const (
	ErrOrderNotFound      svcerr.Code = "ORDER_NOT_FOUND"
	ErrInvalidOrderStatus svcerr.Code = "INVALID_ORDER_STATUS"
	ErrUnauthorizedDriver svcerr.Code = "UNAUTHORIZED_DRIVER"
	ErrReturnOrder        svcerr.Code = "RETURN_ORDER"
)

type Repo interface {
	ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Order, error)
	MarkAccepted(ctx context.Context, tx *sql.Tx, orderID, driverID int64) error
	MarkInTransit(ctx context.Context, tx *sql.Tx, orderID int64) error
	MarkDelivered(ctx context.Context, tx *sql.Tx, orderID int64) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Order, error)
	ListPending(ctx context.Context, limit, offset int) ([]model.Order, error)
}

type RentalCreator interface {
	CreateFromOrder(ctx context.Context, tx *sql.Tx, order *model.Order) ([]model.Rental, error)
}

type Service interface {
	// Accept assigns a paid pending order to the calling driver.
	Accept(ctx context.Context, driverID, orderID int64) error

	// MarkPickedUp confirms handover: DRIVER_ACCEPTED to IN_TRANSIT, only by
	// the assigned driver.
	MarkPickedUp(ctx context.Context, driverID, orderID int64) error

	// MarkDelivered completes a forward delivery and starts its rentals.
	// Return orders are completed by the library through the rental-return
	// flow, not here.
	MarkDelivered(ctx context.Context, driverID, orderID int64) error

	MyOrders(ctx context.Context, userID int64, limit, offset int) ([]model.Order, error)
	Available(ctx context.Context, limit, offset int) ([]model.Order, error)
}

type service struct {
	db      *sql.DB
	r       Repo
	rentals RentalCreator
}

func New(db *sql.DB, r Repo, rentals RentalCreator) Service {
	return &service{db: db, r: r, rentals: rentals}
}

func (s *service) Accept(ctx context.Context, driverID, orderID int64) error {
	return s.transition(ctx, orderID, func(tx *sql.Tx, order *model.Order) error {
		if order.Status != model.OrderPending || order.PaymentStatus != model.PaymentCompleted {
			return svcerr.New(ErrInvalidOrderStatus)
		}
		return s.r.MarkAccepted(ctx, tx, order.ID, driverID)
	})
}

func (s *service) MarkPickedUp(ctx context.Context, driverID, orderID int64) error {
	return s.transition(ctx, orderID, func(tx *sql.Tx, order *model.Order) error {
		if order.Status != model.OrderDriverAccepted {
			return svcerr.New(ErrInvalidOrderStatus)
		}
		if order.DriverID == nil || *order.DriverID != driverID {
			return svcerr.New(ErrUnauthorizedDriver)
		}
		return s.r.MarkInTransit(ctx, tx, order.ID)
	})
}

func (s *service) MarkDelivered(ctx context.Context, driverID, orderID int64) error {
	return s.transition(ctx, orderID, func(tx *sql.Tx, order *model.Order) error {
		if order.Kind == model.OrderReturn {
			return svcerr.New(ErrReturnOrder)
		}
		if order.Status != model.OrderInTransit {
			return svcerr.New(ErrInvalidOrderStatus)
		}
		if order.DriverID == nil || *order.DriverID != driverID {
			return svcerr.New(ErrUnauthorizedDriver)
		}
		if err := s.r.MarkDelivered(ctx, tx, order.ID); err != nil {
			return err
		}
		_, err := s.rentals.CreateFromOrder(ctx, tx, order)
		return err
	})
}

func (s *service) transition(ctx context.Context, orderID int64, fn func(tx *sql.Tx, order *model.Order) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	order, err := s.r.ByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		err = svcerr.New(ErrOrderNotFound)
		return err
	}
	if err = fn(tx, order); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) MyOrders(ctx context.Context, userID int64, limit, offset int) ([]model.Order, error) {
	return s.r.ListByUser(ctx, userID, limit, offset)
}

func (s *service) Available(ctx context.Context, limit, offset int) ([]model.Order, error) {
	return s.r.ListPending(ctx, limit, offset)
}
