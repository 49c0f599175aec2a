package rentalsvc

import (
	"context"
	"database/sql"
	"time"

	"bookrider/model"
)

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, rent *model.Rental) error
	ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Rental, error)
	SumReturned(ctx context.Context, tx *sql.Tx, rentalID int64) (int, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, rentalID int64, status model.RentalStatus) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Rental, error)
}

type OrderRepo interface {
	ItemsByOrder(ctx context.Context, tx *sql.Tx, orderID int64) ([]model.OrderItem, error)
}

type Service interface {
	// CreateFromOrder starts one rental per order item when a forward order
	// is delivered; runs inside the delivery transaction.
	CreateFromOrder(ctx context.Context, tx *sql.Tx, order *model.Order) ([]model.Rental, error)

	// UpdateQuantities settles rental statuses after return items were
	// written: a rental whose cumulative returned quantity covers its full
	// quantity is RETURNED, anything short of that is PARTIALLY_RETURNED.
	UpdateQuantities(ctx context.Context, tx *sql.Tx, items []model.RentalReturnItem) error

	MyRentals(ctx context.Context, userID int64, limit, offset int) ([]model.Rental, error)
}

type service struct {
	r            Repo
	orders       OrderRepo
	deadlineDays int
}

func New(r Repo, orders OrderRepo, deadlineDays int) Service {
	return &service{r: r, orders: orders, deadlineDays: deadlineDays}
}

func (s *service) CreateFromOrder(ctx context.Context, tx *sql.Tx, order *model.Order) ([]model.Rental, error) {
	items, err := s.orders.ItemsByOrder(ctx, tx, order.ID)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().UTC().AddDate(0, 0, s.deadlineDays)
	out := make([]model.Rental, 0, len(items))
	for _, it := range items {
		rent := model.Rental{
			UserID:         order.UserID,
			BookID:         it.BookID,
			LibraryID:      order.LibraryID,
			OrderID:        order.ID,
			Quantity:       it.Quantity,
			Status:         model.RentalRented,
			ReturnDeadline: deadline,
		}
		if err := s.r.Insert(ctx, tx, &rent); err != nil {
			return nil, err
		}
		out = append(out, rent)
	}
	return out, nil
}

func (s *service) UpdateQuantities(ctx context.Context, tx *sql.Tx, items []model.RentalReturnItem) error {
	// items from one return may share a rental only across calls, never
	// within one, so per-item handling is enough
	for _, it := range items {
		rent, err := s.r.ByIDForUpdate(ctx, tx, it.RentalID)
		if err != nil {
			return err
		}
		if rent == nil {
			return sql.ErrNoRows
		}

		returned, err := s.r.SumReturned(ctx, tx, it.RentalID)
		if err != nil {
			return err
		}
		status := model.RentalPartiallyReturned
		if returned >= rent.Quantity {
			status = model.RentalReturned
		}
		if err := s.r.UpdateStatus(ctx, tx, it.RentalID, status); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) MyRentals(ctx context.Context, userID int64, limit, offset int) ([]model.Rental, error) {
	return s.r.ListByUser(ctx, userID, limit, offset)
}
