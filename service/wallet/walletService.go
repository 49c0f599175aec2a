package walletsvc

import (
	"context"
	"database/sql"

	"bookrider/model"
	"bookrider/service/svcerr"
	"bookrider/util/money"
)

const (
	ErrInvalidAmount      svcerr.Code = "INVALID_AMOUNT"
	ErrOrderNotFound      svcerr.Code = "ORDER_NOT_FOUND"
	ErrOrderNotDelivered  svcerr.Code = "ORDER_NOT_DELIVERED"
	ErrUnauthorizedDriver svcerr.Code = "UNAUTHORIZED_DRIVER"
	ErrAlreadyPaidOut     svcerr.Code = "ALREADY_PAID_OUT"
)

// DriverFeeRate is the platform's cut of a delivered order.
const DriverFeeRate = 0.20

type Repo interface {
	InsertTransaction(ctx context.Context, tx *sql.Tx, t *model.Transaction) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Transaction, error)
	HasPayoutForOrder(ctx context.Context, tx *sql.Tx, orderID int64) (bool, error)
}

type UserRepo interface {
	LockBalance(ctx context.Context, tx *sql.Tx, userID int64) (float64, error)
	AdjustBalance(ctx context.Context, tx *sql.Tx, userID int64, delta float64) error
}

type OrderRepo interface {
	ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Order, error)
}

// Service is the only writer of user balances. Ledger amounts are signed:
// credits positive, debits negative, and every balance change lands in the
// same tx as its transaction row.
type Service interface {
	// Deposit mock-confirms a payment and credits the balance; any positive
	// amount is accepted.
	Deposit(ctx context.Context, userID int64, amount float64) (*model.Transaction, error)

	// Pay debits an order amount inside the caller's tx. Sufficiency is the
	// caller's job (checked under LockBalance before any write).
	Pay(ctx context.Context, tx *sql.Tx, userID, orderID int64, amount float64) error

	// ChargeLateFee debits a positive fee inside the caller's tx.
	ChargeLateFee(ctx context.Context, tx *sql.Tx, userID int64, amount float64, orderID *int64) error

	// PayoutDriver credits the driver of a delivered order, minus the
	// service fee. At most one payout per order.
	PayoutDriver(ctx context.Context, driverID, orderID int64) (*model.Transaction, error)

	Ledger(ctx context.Context, userID int64, limit, offset int) ([]model.Transaction, error)
}

type service struct {
	db     *sql.DB
	r      Repo
	users  UserRepo
	orders OrderRepo
}

func New(db *sql.DB, r Repo, users UserRepo, orders OrderRepo) Service {
	return &service{db: db, r: r, users: users, orders: orders}
}

func (s *service) Deposit(ctx context.Context, userID int64, amount float64) (t *model.Transaction, err error) {
	if amount <= 0 {
		return nil, svcerr.New(ErrInvalidAmount)
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

	if err = s.users.AdjustBalance(ctx, tx, userID, amount); err != nil {
		return nil, err
	}
	t = &model.Transaction{UserID: userID, Amount: amount, Type: model.TxUserDeposit}
	if err = s.r.InsertTransaction(ctx, tx, t); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) Pay(ctx context.Context, tx *sql.Tx, userID, orderID int64, amount float64) error {
	if err := s.users.AdjustBalance(ctx, tx, userID, -amount); err != nil {
		return err
	}
	return s.r.InsertTransaction(ctx, tx, &model.Transaction{
		UserID:  userID,
		OrderID: &orderID,
		Amount:  -amount,
		Type:    model.TxUserPayment,
	})
}

func (s *service) ChargeLateFee(ctx context.Context, tx *sql.Tx, userID int64, amount float64, orderID *int64) error {
	if amount <= 0 {
		return svcerr.New(ErrInvalidAmount)
	}
	if err := s.users.AdjustBalance(ctx, tx, userID, -amount); err != nil {
		return err
	}
	return s.r.InsertTransaction(ctx, tx, &model.Transaction{
		UserID:  userID,
		OrderID: orderID,
		Amount:  -amount,
		Type:    model.TxLateFee,
	})
}

func (s *service) PayoutDriver(ctx context.Context, driverID, orderID int64) (t *model.Transaction, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	order, err := s.orders.ByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		err = svcerr.New(ErrOrderNotFound)
		return nil, err
	}
	if order.Status != model.OrderDelivered {
		err = svcerr.New(ErrOrderNotDelivered)
		return nil, err
	}
	if order.DriverID == nil || *order.DriverID != driverID {
		err = svcerr.New(ErrUnauthorizedDriver)
		return nil, err
	}
	paid, err := s.r.HasPayoutForOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if paid {
		err = svcerr.New(ErrAlreadyPaidOut)
		return nil, err
	}

	payout := money.FloorCents(order.Amount * (1 - DriverFeeRate))
	if err = s.users.AdjustBalance(ctx, tx, driverID, payout); err != nil {
		return nil, err
	}
	t = &model.Transaction{UserID: driverID, OrderID: &orderID, Amount: payout, Type: model.TxDriverPayout}
	if err = s.r.InsertTransaction(ctx, tx, t); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) Ledger(ctx context.Context, userID int64, limit, offset int) ([]model.Transaction, error) {
	return s.r.ListByUser(ctx, userID, limit, offset)
}
