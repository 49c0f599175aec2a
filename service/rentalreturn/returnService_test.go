package returnsvc

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"bookrider/model"
	pricingsvc "bookrider/service/pricing"
	"bookrider/service/svcerr"
)

type mockRentals struct {
	rentals  map[int64]*model.Rental
	returned map[int64]int
	statuses map[int64]model.RentalStatus
}

func (m *mockRentals) ByID(ctx context.Context, id int64) (*model.Rental, error) {
	return m.rentals[id], nil
}

func (m *mockRentals) SumReturned(ctx context.Context, tx *sql.Tx, rentalID int64) (int, error) {
	return m.returned[rentalID], nil
}

func (m *mockRentals) UpdateStatus(ctx context.Context, tx *sql.Tx, rentalID int64, status model.RentalStatus) error {
	m.statuses[rentalID] = status
	return nil
}

type mockReturns struct {
	inserted []*model.RentalReturn
	items    []model.RentalReturnItem
	byID     map[int64]*model.RentalReturn
	statuses map[int64]model.RentalReturnStatus
}

func (m *mockReturns) Insert(ctx context.Context, tx *sql.Tx, rr *model.RentalReturn) error {
	rr.ID = int64(len(m.inserted) + 1)
	m.inserted = append(m.inserted, rr)
	return nil
}

func (m *mockReturns) InsertItem(ctx context.Context, tx *sql.Tx, item *model.RentalReturnItem) error {
	item.ID = int64(len(m.items) + 1)
	m.items = append(m.items, *item)
	return nil
}

func (m *mockReturns) ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.RentalReturn, error) {
	return m.byID[id], nil
}

func (m *mockReturns) Items(ctx context.Context, tx *sql.Tx, returnID int64) ([]model.RentalReturnItem, error) {
	var out []model.RentalReturnItem
	for _, it := range m.items {
		if it.RentalReturnID == returnID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockReturns) UpdateStatus(ctx context.Context, tx *sql.Tx, returnID int64, status model.RentalReturnStatus) error {
	if m.statuses == nil {
		m.statuses = map[int64]model.RentalReturnStatus{}
	}
	m.statuses[returnID] = status
	return nil
}

func (m *mockReturns) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.RentalReturn, error) {
	return nil, nil
}

type mockOrders struct {
	inserted  []*model.Order
	paid      []int64
	delivered []int64
}

func (m *mockOrders) Insert(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	o.ID = int64(len(m.inserted) + 100)
	m.inserted = append(m.inserted, o)
	return nil
}

func (m *mockOrders) MarkPaymentCompleted(ctx context.Context, tx *sql.Tx, orderID int64) error {
	m.paid = append(m.paid, orderID)
	return nil
}

func (m *mockOrders) MarkDelivered(ctx context.Context, tx *sql.Tx, orderID int64) error {
	m.delivered = append(m.delivered, orderID)
	return nil
}

type mockCatalog struct {
	libs map[int64]*model.Library
}

func (m *mockCatalog) LibraryByID(ctx context.Context, id int64) (*model.Library, error) {
	return m.libs[id], nil
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

type mockAddresses struct {
	addr *model.Address
}

func (m *mockAddresses) ByID(ctx context.Context, id int64) (*model.Address, error) {
	return m.addr, nil
}

type mockResolver struct{ km float64 }

func (m *mockResolver) Resolve(ctx context.Context, from, to model.Coordinates) (float64, error) {
	return m.km, nil
}

type mockLedger struct {
	payments []float64
	fees     []float64
}

func (m *mockLedger) Pay(ctx context.Context, tx *sql.Tx, userID, orderID int64, amount float64) error {
	m.payments = append(m.payments, amount)
	return nil
}

func (m *mockLedger) ChargeLateFee(ctx context.Context, tx *sql.Tx, userID int64, amount float64, orderID *int64) error {
	m.fees = append(m.fees, amount)
	return nil
}

type mockQuantities struct {
	applied []model.RentalReturnItem
}

func (m *mockQuantities) UpdateQuantities(ctx context.Context, tx *sql.Tx, items []model.RentalReturnItem) error {
	m.applied = append(m.applied, items...)
	return nil
}

type fixture struct {
	svc        Service
	db         sqlmock.Sqlmock
	rentals    *mockRentals
	returns    *mockReturns
	orders     *mockOrders
	users      *mockUsers
	ledger     *mockLedger
	quantities *mockQuantities
}

const userID = int64(5)

// two rentals 30 days overdue at 1.00/day, libraries 1 and 2
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	deadline := time.Now().UTC().AddDate(0, 0, -30)
	rentals := &mockRentals{
		rentals: map[int64]*model.Rental{
			1: {ID: 1, UserID: userID, BookID: 10, LibraryID: 1, Quantity: 2, ReturnDeadline: deadline},
			2: {ID: 2, UserID: userID, BookID: 20, LibraryID: 2, Quantity: 3, ReturnDeadline: deadline},
			3: {ID: 3, UserID: userID, BookID: 30, LibraryID: 1, Quantity: 1, ReturnDeadline: time.Now().UTC().AddDate(0, 0, 5)},
		},
		returned: map[int64]int{},
		statuses: map[int64]model.RentalStatus{},
	}
	returns := &mockReturns{byID: map[int64]*model.RentalReturn{}}
	orders := &mockOrders{}
	catalog := &mockCatalog{libs: map[int64]*model.Library{
		1: {ID: 1, Name: "central", AddressID: 11, Latitude: 52.1},
		2: {ID: 2, Name: "south", AddressID: 22, Latitude: 50.0},
	}}
	users := &mockUsers{
		user:    &model.User{ID: userID, DeliveryAddressID: ptr(int64(77))},
		balance: 1000,
	}
	addresses := &mockAddresses{addr: &model.Address{ID: 77, Latitude: 52.0, Longitude: 21.0}}
	ledger := &mockLedger{}
	quantities := &mockQuantities{}

	svc := New(db, rentals, returns, orders, catalog, users, addresses,
		&mockResolver{km: 10}, pricingsvc.New(1.00), ledger, quantities)

	return &fixture{
		svc:        svc,
		db:         mock,
		rentals:    rentals,
		returns:    returns,
		orders:     orders,
		users:      users,
		ledger:     ledger,
		quantities: quantities,
	}
}

func ptr[T any](v T) *T { return &v }

func TestPreviewInPersonPrice(t *testing.T) {
	f := newFixture(t)

	// 30 whole days overdue, fee independent of quantity
	p, err := f.svc.PreviewInPersonPrice(context.Background(), userID, []ReturnRequest{
		{RentalID: 1, Quantity: 2},
		{RentalID: 2, Quantity: 1},
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, p.DeliveryCost)
	require.Equal(t, 60.00, p.TotalLateFees)
	require.Equal(t, 60.00, p.TotalPrice)
	require.Len(t, p.Fees, 2)
	for _, fee := range p.Fees {
		require.Equal(t, 30.00, fee.LateFee)
	}
}

func TestPreviewCourierPrice(t *testing.T) {
	f := newFixture(t)

	// one group per library: km=10 qty=2 -> 16.00, km=10 qty=1 -> 15.00
	p, err := f.svc.PreviewCourierPrice(context.Background(), userID, []ReturnRequest{
		{RentalID: 1, Quantity: 2},
		{RentalID: 2, Quantity: 1},
	})
	require.NoError(t, err)
	require.Equal(t, 31.00, p.DeliveryCost)
	require.Equal(t, 60.00, p.TotalLateFees)
	require.Equal(t, 91.00, p.TotalPrice)
}

func TestCreateCourierReturn_GroupsByLibrary(t *testing.T) {
	f := newFixture(t)
	f.db.ExpectBegin()
	f.db.ExpectCommit()

	// rentals 1 and 3 share library 1, rental 2 is alone in library 2
	out, err := f.svc.CreateCourierReturn(context.Background(), userID, []ReturnRequest{
		{RentalID: 1, Quantity: 1},
		{RentalID: 2, Quantity: 3},
		{RentalID: 3, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Len(t, f.orders.inserted, 2)

	first := out[0]
	require.Equal(t, int64(1), first.LibraryID)
	require.Equal(t, model.ReturnInProgress, first.Status)
	require.NotNil(t, first.OrderID)
	require.Len(t, first.Items, 2)

	second := out[1]
	require.Equal(t, int64(2), second.LibraryID)
	require.Len(t, second.Items, 1)

	for _, o := range f.orders.inserted {
		require.Equal(t, model.OrderReturn, o.Kind)
		require.Equal(t, int64(77), o.PickupAddressID)
	}
	require.Equal(t, int64(11), f.orders.inserted[0].DestinationAddressID)
	require.Equal(t, int64(22), f.orders.inserted[1].DestinationAddressID)

	// both groups paid, both orders marked, rentals locked for return
	require.Len(t, f.ledger.payments, 2)
	require.Len(t, f.orders.paid, 2)
	for _, id := range []int64{1, 2, 3} {
		require.Equal(t, model.RentalReturnInProgress, f.rentals.statuses[id])
	}
	// only the two overdue rentals pay a fee
	require.Equal(t, []float64{30.00, 30.00}, f.ledger.fees)

	// courier path must not settle quantities before the books arrive
	require.Empty(t, f.quantities.applied)
	require.NoError(t, f.db.ExpectationsWereMet())
}

func TestCreateCourierReturn_InsufficientBalance(t *testing.T) {
	f := newFixture(t)
	f.users.balance = 10
	f.db.ExpectBegin()
	f.db.ExpectRollback()

	_, err := f.svc.CreateCourierReturn(context.Background(), userID, []ReturnRequest{
		{RentalID: 1, Quantity: 1},
	})
	require.Equal(t, ErrInsufficientBalance, svcerr.CodeOf(err))
	require.Empty(t, f.orders.inserted)
	require.NoError(t, f.db.ExpectationsWereMet())
}

func TestCreateInPersonReturn_SettlesImmediately(t *testing.T) {
	f := newFixture(t)
	f.db.ExpectBegin()
	f.db.ExpectCommit()

	out, err := f.svc.CreateInPersonReturn(context.Background(), userID, []ReturnRequest{
		{RentalID: 1, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, model.ReturnInPerson, out[0].Status)
	require.Nil(t, out[0].OrderID)
	require.Empty(t, f.orders.inserted)
	require.Empty(t, f.ledger.payments)
	require.Equal(t, []float64{30.00}, f.ledger.fees)
	require.Len(t, f.quantities.applied, 1)
	require.NoError(t, f.db.ExpectationsWereMet())
}

func TestReturnGuards(t *testing.T) {
	t.Run("already returned", func(t *testing.T) {
		f := newFixture(t)
		f.rentals.returned[1] = 2
		_, err := f.svc.PreviewInPersonPrice(context.Background(), userID, []ReturnRequest{{RentalID: 1, Quantity: 1}})
		require.Equal(t, ErrAlreadyReturned, svcerr.CodeOf(err))
	})

	t.Run("quantity exceeds remainder", func(t *testing.T) {
		f := newFixture(t)
		f.rentals.returned[1] = 1
		_, err := f.svc.PreviewInPersonPrice(context.Background(), userID, []ReturnRequest{{RentalID: 1, Quantity: 2}})
		require.Equal(t, ErrQuantityExceeded, svcerr.CodeOf(err))
	})

	t.Run("second partial return of the remainder is fine", func(t *testing.T) {
		f := newFixture(t)
		f.rentals.returned[2] = 2
		_, err := f.svc.PreviewInPersonPrice(context.Background(), userID, []ReturnRequest{{RentalID: 2, Quantity: 1}})
		require.NoError(t, err)
	})

	t.Run("foreign rental", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.PreviewInPersonPrice(context.Background(), int64(999), []ReturnRequest{{RentalID: 1, Quantity: 1}})
		require.Equal(t, ErrRentalNotFound, svcerr.CodeOf(err))
	})

	t.Run("empty request", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.PreviewInPersonPrice(context.Background(), userID, nil)
		require.Equal(t, ErrInvalidQuantity, svcerr.CodeOf(err))
	})
}

func TestMarkCompleted(t *testing.T) {
	f := newFixture(t)
	orderID := int64(100)
	f.returns.byID[1] = &model.RentalReturn{ID: 1, UserID: userID, LibraryID: 1, OrderID: &orderID, Status: model.ReturnInProgress}
	f.returns.items = []model.RentalReturnItem{{ID: 1, RentalReturnID: 1, RentalID: 1, BookID: 10, ReturnedQuantity: 2}}

	f.db.ExpectBegin()
	f.db.ExpectCommit()

	rr, err := f.svc.MarkCompleted(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, model.ReturnCompleted, rr.Status)
	require.Len(t, f.quantities.applied, 1)
	require.Equal(t, model.ReturnCompleted, f.returns.statuses[1])
	require.Equal(t, []int64{orderID}, f.orders.delivered)
	require.NoError(t, f.db.ExpectationsWereMet())
}

func TestMarkCompleted_WrongStatus(t *testing.T) {
	f := newFixture(t)
	f.returns.byID[2] = &model.RentalReturn{ID: 2, Status: model.ReturnInPerson}

	f.db.ExpectBegin()
	f.db.ExpectRollback()

	_, err := f.svc.MarkCompleted(context.Background(), 2)
	require.Equal(t, ErrInvalidReturnStatus, svcerr.CodeOf(err))
	require.NoError(t, f.db.ExpectationsWereMet())
}
