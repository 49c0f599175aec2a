package walletsvc

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"bookrider/model"
	"bookrider/service/svcerr"
)

type mockRepo struct {
	transactions []*model.Transaction
	payoutDone   bool
}

func (m *mockRepo) InsertTransaction(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
	t.ID = int64(len(m.transactions) + 1)
	m.transactions = append(m.transactions, t)
	return nil
}

func (m *mockRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Transaction, error) {
	return nil, nil
}

func (m *mockRepo) HasPayoutForOrder(ctx context.Context, tx *sql.Tx, orderID int64) (bool, error) {
	return m.payoutDone, nil
}

type mockUsers struct {
	deltas []float64
}

func (m *mockUsers) LockBalance(ctx context.Context, tx *sql.Tx, userID int64) (float64, error) {
	return 0, nil
}

func (m *mockUsers) AdjustBalance(ctx context.Context, tx *sql.Tx, userID int64, delta float64) error {
	m.deltas = append(m.deltas, delta)
	return nil
}

type mockOrders struct {
	order *model.Order
}

func (m *mockOrders) ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Order, error) {
	return m.order, nil
}

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func ptr[T any](v T) *T { return &v }

func TestDeposit(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &mockRepo{}
	users := &mockUsers{}
	svc := New(db, repo, users, &mockOrders{})

	tr, err := svc.Deposit(context.Background(), 5, 50.00)
	require.NoError(t, err)
	require.Equal(t, model.TxUserDeposit, tr.Type)
	require.Equal(t, 50.00, tr.Amount)
	require.Equal(t, []float64{50.00}, users.deltas)
	require.Len(t, repo.transactions, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeposit_InvalidAmount(t *testing.T) {
	db, _ := newDB(t)
	svc := New(db, &mockRepo{}, &mockUsers{}, &mockOrders{})

	for _, amount := range []float64{0, -10} {
		_, err := svc.Deposit(context.Background(), 5, amount)
		require.Equal(t, ErrInvalidAmount, svcerr.CodeOf(err))
	}
}

func TestPay_WritesSignedDebit(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectBegin()

	repo := &mockRepo{}
	users := &mockUsers{}
	svc := New(db, repo, users, &mockOrders{})

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, svc.Pay(context.Background(), tx, 5, 9, 16.00))

	require.Equal(t, []float64{-16.00}, users.deltas)
	require.Equal(t, -16.00, repo.transactions[0].Amount)
	require.Equal(t, model.TxUserPayment, repo.transactions[0].Type)
	require.Equal(t, int64(9), *repo.transactions[0].OrderID)
}

func TestChargeLateFee_RejectsNonPositive(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectBegin()

	svc := New(db, &mockRepo{}, &mockUsers{}, &mockOrders{})
	tx, err := db.Begin()
	require.NoError(t, err)

	err = svc.ChargeLateFee(context.Background(), tx, 5, 0, nil)
	require.Equal(t, ErrInvalidAmount, svcerr.CodeOf(err))
}

func TestPayoutDriver(t *testing.T) {
	driverID := int64(7)
	delivered := &model.Order{
		ID: 9, DriverID: ptr(driverID), Amount: 16.00,
		Status: model.OrderDelivered, Kind: model.OrderDelivery,
	}

	t.Run("pays 80 percent floored", func(t *testing.T) {
		db, mock := newDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		repo := &mockRepo{}
		users := &mockUsers{}
		svc := New(db, repo, users, &mockOrders{order: delivered})

		tr, err := svc.PayoutDriver(context.Background(), driverID, 9)
		require.NoError(t, err)
		require.Equal(t, 12.80, tr.Amount)
		require.Equal(t, model.TxDriverPayout, tr.Type)
		require.Equal(t, []float64{12.80}, users.deltas)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not delivered", func(t *testing.T) {
		db, mock := newDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		pending := *delivered
		pending.Status = model.OrderInTransit
		svc := New(db, &mockRepo{}, &mockUsers{}, &mockOrders{order: &pending})

		_, err := svc.PayoutDriver(context.Background(), driverID, 9)
		require.Equal(t, ErrOrderNotDelivered, svcerr.CodeOf(err))
	})

	t.Run("wrong driver", func(t *testing.T) {
		db, mock := newDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		svc := New(db, &mockRepo{}, &mockUsers{}, &mockOrders{order: delivered})
		_, err := svc.PayoutDriver(context.Background(), int64(999), 9)
		require.Equal(t, ErrUnauthorizedDriver, svcerr.CodeOf(err))
	})

	t.Run("second payout blocked", func(t *testing.T) {
		db, mock := newDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		svc := New(db, &mockRepo{payoutDone: true}, &mockUsers{}, &mockOrders{order: delivered})
		_, err := svc.PayoutDriver(context.Background(), driverID, 9)
		require.Equal(t, ErrAlreadyPaidOut, svcerr.CodeOf(err))
	})

	t.Run("missing order", func(t *testing.T) {
		db, mock := newDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		svc := New(db, &mockRepo{}, &mockUsers{}, &mockOrders{})
		_, err := svc.PayoutDriver(context.Background(), driverID, 9)
		require.Equal(t, ErrOrderNotFound, svcerr.CodeOf(err))
	})
}
