package checkoutsvc

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"bookrider/model"
	"bookrider/service/svcerr"
)

type mockCarts struct {
	items   []model.CartItem
	cleared bool
}

func (m *mockCarts) GetOrCreate(ctx context.Context, tx *sql.Tx, userID int64) (*model.ShoppingCart, error) {
	return &model.ShoppingCart{ID: 1, UserID: userID}, nil
}

func (m *mockCarts) ItemsWithSubItems(ctx context.Context, tx *sql.Tx, cartID int64) ([]model.CartItem, error) {
	return m.items, nil
}

func (m *mockCarts) Clear(ctx context.Context, tx *sql.Tx, cartID int64) error {
	m.cleared = true
	return nil
}

type mockUsers struct {
	user    *model.User
	balance float64
}

func (m *mockUsers) ByID(ctx context.Context, id int64) (*model.User, error) {
	return m.user, nil
}

func (m *mockUsers) LockBalance(ctx context.Context, tx *sql.Tx, userID int64) (float64, error) {
	return m.balance, nil
}

type mockCatalog struct{}

func (mockCatalog) LibraryByID(ctx context.Context, id int64) (*model.Library, error) {
	return &model.Library{ID: id, AddressID: id * 10}, nil
}

type mockOrders struct {
	inserted []*model.Order
	items    []model.OrderItem
	paid     []int64
}

func (m *mockOrders) Insert(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	o.ID = int64(len(m.inserted) + 1)
	m.inserted = append(m.inserted, o)
	return nil
}

func (m *mockOrders) InsertItem(ctx context.Context, tx *sql.Tx, item *model.OrderItem) error {
	m.items = append(m.items, *item)
	return nil
}

func (m *mockOrders) MarkPaymentCompleted(ctx context.Context, tx *sql.Tx, orderID int64) error {
	m.paid = append(m.paid, orderID)
	return nil
}

type mockPayer struct {
	amounts []float64
}

func (m *mockPayer) Pay(ctx context.Context, tx *sql.Tx, userID, orderID int64, amount float64) error {
	m.amounts = append(m.amounts, amount)
	return nil
}

func addr(id int64) *int64 { return &id }

func twoLibraryCart() []model.CartItem {
	return []model.CartItem{
		{
			ID: 1, LibraryID: 1, DeliveryCost: 16.00,
			SubItems: []model.CartSubItem{
				{ID: 1, BookID: 10, Quantity: 2},
				{ID: 2, BookID: 20, Quantity: 1},
			},
		},
		{
			ID: 2, LibraryID: 2, DeliveryCost: 15.00,
			SubItems: []model.CartSubItem{
				{ID: 3, BookID: 30, Quantity: 1},
			},
		},
	}
}

func TestCheckout_OneOrderPerLibrary(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	carts := &mockCarts{items: twoLibraryCart()}
	users := &mockUsers{user: &model.User{ID: 5, DeliveryAddressID: addr(77)}, balance: 100}
	orders := &mockOrders{}
	payer := &mockPayer{}
	svc := New(db, carts, users, mockCatalog{}, orders, payer)

	out, err := svc.Checkout(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, out, 2)

	first := out[0]
	require.Equal(t, model.OrderDelivery, first.Kind)
	require.Equal(t, model.PaymentCompleted, first.PaymentStatus)
	require.Equal(t, int64(10), first.PickupAddressID) // library 1 address
	require.Equal(t, int64(77), first.DestinationAddressID)
	require.Equal(t, 16.00, first.Amount)
	require.Len(t, first.Items, 2)

	require.Equal(t, []float64{16.00, 15.00}, payer.amounts)
	require.Len(t, orders.paid, 2)
	require.True(t, carts.cleared)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_EmptyCart(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	carts := &mockCarts{}
	users := &mockUsers{user: &model.User{ID: 5, DeliveryAddressID: addr(77)}, balance: 100}
	orders := &mockOrders{}
	svc := New(db, carts, users, mockCatalog{}, orders, &mockPayer{})

	_, err = svc.Checkout(context.Background(), 5)
	require.Equal(t, ErrEmptyCart, svcerr.CodeOf(err))
	require.Empty(t, orders.inserted)
	require.False(t, carts.cleared)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_InsufficientBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	carts := &mockCarts{items: twoLibraryCart()}
	users := &mockUsers{user: &model.User{ID: 5, DeliveryAddressID: addr(77)}, balance: 30.99}
	orders := &mockOrders{}
	payer := &mockPayer{}
	svc := New(db, carts, users, mockCatalog{}, orders, payer)

	_, err = svc.Checkout(context.Background(), 5)
	require.Equal(t, ErrInsufficientBalance, svcerr.CodeOf(err))
	require.Empty(t, orders.inserted)
	require.Empty(t, payer.amounts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_NoDeliveryAddress(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	users := &mockUsers{user: &model.User{ID: 5}}
	svc := New(db, &mockCarts{}, users, mockCatalog{}, &mockOrders{}, &mockPayer{})

	_, err = svc.Checkout(context.Background(), 5)
	require.Equal(t, ErrMissingAddress, svcerr.CodeOf(err))
}
