package returnsvc

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"bookrider/model"
	"bookrider/service/svcerr"
)

const (
	ErrInvalidQuantity     svcerr.Code = "INVALID_QUANTITY"
	ErrRentalNotFound      svcerr.Code = "RENTAL_NOT_FOUND"
	ErrAlreadyReturned     svcerr.Code = "ALREADY_RETURNED"
	ErrQuantityExceeded    svcerr.Code = "QUANTITY_EXCEEDED"
	ErrMissingAddress      svcerr.Code = "MISSING_ADDRESS"
	ErrInsufficientBalance svcerr.Code = "INSUFFICIENT_BALANCE"
	ErrReturnNotFound      svcerr.Code = "RETURN_NOT_FOUND"
	ErrInvalidReturnStatus svcerr.Code = "INVALID_RETURN_STATUS"
)

// ReturnRequest asks to give back part or all of one rental.
type ReturnRequest struct {
	RentalID int64 `json:"rental_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

// RentalFee is the per-rental late fee breakdown in a price preview.
type RentalFee struct {
	RentalID int64   `json:"rental_id"`
	LateFee  float64 `json:"late_fee"`
}

// PricePreview is the no-writes quote for a return request.
type PricePreview struct {
	TotalPrice    float64     `json:"total_price"`
	DeliveryCost  float64     `json:"delivery_cost"`
	TotalLateFees float64     `json:"total_late_fees"`
	Fees          []RentalFee `json:"fees"`
}

type RentalRepo interface {
	ByID(ctx context.Context, id int64) (*model.Rental, error)
	SumReturned(ctx context.Context, tx *sql.Tx, rentalID int64) (int, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, rentalID int64, status model.RentalStatus) error
}

type ReturnRepo interface {
	Insert(ctx context.Context, tx *sql.Tx, rr *model.RentalReturn) error
	InsertItem(ctx context.Context, tx *sql.Tx, item *model.RentalReturnItem) error
	ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.RentalReturn, error)
	Items(ctx context.Context, tx *sql.Tx, returnID int64) ([]model.RentalReturnItem, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, returnID int64, status model.RentalReturnStatus) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.RentalReturn, error)
}

type OrderRepo interface {
	Insert(ctx context.Context, tx *sql.Tx, o *model.Order) error
	MarkPaymentCompleted(ctx context.Context, tx *sql.Tx, orderID int64) error
	MarkDelivered(ctx context.Context, tx *sql.Tx, orderID int64) error
}

type CatalogRepo interface {
	LibraryByID(ctx context.Context, id int64) (*model.Library, error)
}

type UserRepo interface {
	ByID(ctx context.Context, id int64) (*model.User, error)
	LockBalance(ctx context.Context, tx *sql.Tx, userID int64) (float64, error)
}

type AddressRepo interface {
	ByID(ctx context.Context, id int64) (*model.Address, error)
}

type Resolver interface {
	Resolve(ctx context.Context, from, to model.Coordinates) (float64, error)
}

type Pricer interface {
	DeliveryCost(distanceKm float64, quantity int, libraryInCart bool) (float64, error)
	LateFee(returnDeadline, now time.Time) float64
}

type Ledger interface {
	Pay(ctx context.Context, tx *sql.Tx, userID, orderID int64, amount float64) error
	ChargeLateFee(ctx context.Context, tx *sql.Tx, userID int64, amount float64, orderID *int64) error
}

type Quantities interface {
	UpdateQuantities(ctx context.Context, tx *sql.Tx, items []model.RentalReturnItem) error
}

type Service interface {
	// CreateCourierReturn groups the requested rentals by library and, per
	// group, creates a paid return order plus an IN_PROGRESS rental return.
	// Late fees are charged per overdue rental. One transaction.
	CreateCourierReturn(ctx context.Context, userID int64, reqs []ReturnRequest) ([]model.RentalReturn, error)

	// CreateInPersonReturn is the same reconciliation without a courier leg:
	// no order, no delivery cost, quantities settle immediately.
	CreateInPersonReturn(ctx context.Context, userID int64, reqs []ReturnRequest) ([]model.RentalReturn, error)

	PreviewCourierPrice(ctx context.Context, userID int64, reqs []ReturnRequest) (*PricePreview, error)
	PreviewInPersonPrice(ctx context.Context, userID int64, reqs []ReturnRequest) (*PricePreview, error)

	// MarkCompleted confirms a courier return arrived at the library.
	MarkCompleted(ctx context.Context, returnID int64) (*model.RentalReturn, error)

	MyReturns(ctx context.Context, userID int64, limit, offset int) ([]model.RentalReturn, error)
}

type service struct {
	db         *sql.DB
	rentals    RentalRepo
	returns    ReturnRepo
	orders     OrderRepo
	catalog    CatalogRepo
	users      UserRepo
	addresses  AddressRepo
	distance   Resolver
	pricing    Pricer
	ledger     Ledger
	quantities Quantities
}

func New(db *sql.DB, rentals RentalRepo, returns ReturnRepo, orders OrderRepo,
	catalog CatalogRepo, users UserRepo, addresses AddressRepo,
	distance Resolver, pricing Pricer, ledger Ledger, quantities Quantities) Service {
	return &service{
		db:         db,
		rentals:    rentals,
		returns:    returns,
		orders:     orders,
		catalog:    catalog,
		users:      users,
		addresses:  addresses,
		distance:   distance,
		pricing:    pricing,
		ledger:     ledger,
		quantities: quantities,
	}
}

// returnGroup collects the requested rentals of one library.
type returnGroup struct {
	library      *model.Library
	rentals      []*model.Rental
	quantities   map[int64]int // rentalID -> quantity to return
	totalQty     int
	lateFees     map[int64]float64 // rentalID -> fee
	feeTotal     float64
	deliveryCost float64 // courier only
}

// buildGroups validates every requested rental against its cumulative
// returned quantity and groups the requests by owning library. A rental with
// nothing left rejects the whole request; asking for more than remains does
// too, so a second partial return of the remainder stays legitimate.
func (s *service) buildGroups(ctx context.Context, userID int64, reqs []ReturnRequest, now time.Time) ([]*returnGroup, error) {
	if len(reqs) == 0 {
		return nil, svcerr.New(ErrInvalidQuantity)
	}

	// merge duplicate rental ids up front
	wanted := map[int64]int{}
	for _, req := range reqs {
		if req.Quantity <= 0 {
			return nil, svcerr.New(ErrInvalidQuantity)
		}
		wanted[req.RentalID] += req.Quantity
	}

	byLibrary := map[int64]*returnGroup{}
	for rentalID, qty := range wanted {
		rent, err := s.rentals.ByID(ctx, rentalID)
		if err != nil {
			return nil, err
		}
		if rent == nil || rent.UserID != userID {
			return nil, svcerr.New(ErrRentalNotFound)
		}

		returned, err := s.rentals.SumReturned(ctx, nil, rentalID)
		if err != nil {
			return nil, err
		}
		remaining := rent.Quantity - returned
		if remaining <= 0 {
			return nil, svcerr.New(ErrAlreadyReturned)
		}
		if qty > remaining {
			return nil, svcerr.New(ErrQuantityExceeded)
		}

		g, ok := byLibrary[rent.LibraryID]
		if !ok {
			lib, err := s.catalog.LibraryByID(ctx, rent.LibraryID)
			if err != nil {
				return nil, err
			}
			g = &returnGroup{
				library:    lib,
				quantities: map[int64]int{},
				lateFees:   map[int64]float64{},
			}
			byLibrary[rent.LibraryID] = g
		}
		g.rentals = append(g.rentals, rent)
		g.quantities[rentalID] = qty
		g.totalQty += qty

		fee := s.pricing.LateFee(rent.ReturnDeadline, now)
		g.lateFees[rentalID] = fee
		g.feeTotal += fee
	}

	groups := make([]*returnGroup, 0, len(byLibrary))
	for _, g := range byLibrary {
		sort.Slice(g.rentals, func(i, j int) bool { return g.rentals[i].ID < g.rentals[j].ID })
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].library.ID < groups[j].library.ID })
	return groups, nil
}

// priceCourierLegs resolves the user->library distance per group and prices
// the return trip like a forward delivery of the combined quantity.
func (s *service) priceCourierLegs(ctx context.Context, groups []*returnGroup, userAddr *model.Address) error {
	for _, g := range groups {
		km, err := s.distance.Resolve(ctx, userAddr.Coordinates(), g.library.Coordinates())
		if err != nil {
			return err
		}
		cost, err := s.pricing.DeliveryCost(km, g.totalQty, false)
		if err != nil {
			return err
		}
		g.deliveryCost = cost
	}
	return nil
}

func (s *service) userAddress(ctx context.Context, userID int64) (*model.Address, error) {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.DeliveryAddressID == nil {
		return nil, svcerr.New(ErrMissingAddress)
	}
	return s.addresses.ByID(ctx, *user.DeliveryAddressID)
}

func preview(groups []*returnGroup) *PricePreview {
	p := &PricePreview{}
	for _, g := range groups {
		p.DeliveryCost += g.deliveryCost
		for _, rent := range g.rentals {
			p.Fees = append(p.Fees, RentalFee{RentalID: rent.ID, LateFee: g.lateFees[rent.ID]})
			p.TotalLateFees += g.lateFees[rent.ID]
		}
	}
	p.TotalPrice = p.DeliveryCost + p.TotalLateFees
	return p
}

func (s *service) PreviewCourierPrice(ctx context.Context, userID int64, reqs []ReturnRequest) (*PricePreview, error) {
	groups, err := s.buildGroups(ctx, userID, reqs, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	addr, err := s.userAddress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.priceCourierLegs(ctx, groups, addr); err != nil {
		return nil, err
	}
	return preview(groups), nil
}

func (s *service) PreviewInPersonPrice(ctx context.Context, userID int64, reqs []ReturnRequest) (*PricePreview, error) {
	groups, err := s.buildGroups(ctx, userID, reqs, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return preview(groups), nil
}

func (s *service) CreateCourierReturn(ctx context.Context, userID int64, reqs []ReturnRequest) (out []model.RentalReturn, err error) {
	now := time.Now().UTC()
	groups, err := s.buildGroups(ctx, userID, reqs, now)
	if err != nil {
		return nil, err
	}
	addr, err := s.userAddress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err = s.priceCourierLegs(ctx, groups, addr); err != nil {
		return nil, err
	}

	var total float64
	for _, g := range groups {
		total += g.deliveryCost + g.feeTotal
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

	balance, err := s.users.LockBalance(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if balance < total {
		err = svcerr.New(ErrInsufficientBalance)
		return nil, err
	}

	for _, g := range groups {
		order := &model.Order{
			UserID:               userID,
			LibraryID:            g.library.ID,
			PickupAddressID:      addr.ID,
			DestinationAddressID: g.library.AddressID,
			Kind:                 model.OrderReturn,
			Amount:               g.deliveryCost,
			Status:               model.OrderPending,
			PaymentStatus:        model.PaymentPending,
		}
		if err = s.orders.Insert(ctx, tx, order); err != nil {
			return nil, err
		}
		if err = s.ledger.Pay(ctx, tx, userID, order.ID, order.Amount); err != nil {
			return nil, err
		}
		if err = s.orders.MarkPaymentCompleted(ctx, tx, order.ID); err != nil {
			return nil, err
		}

		rr := &model.RentalReturn{
			UserID:    userID,
			LibraryID: g.library.ID,
			OrderID:   &order.ID,
			Status:    model.ReturnInProgress,
			LateFee:   g.feeTotal,
		}
		if err = s.returns.Insert(ctx, tx, rr); err != nil {
			return nil, err
		}
		for _, rent := range g.rentals {
			item := model.RentalReturnItem{
				RentalReturnID:   rr.ID,
				RentalID:         rent.ID,
				BookID:           rent.BookID,
				ReturnedQuantity: g.quantities[rent.ID],
			}
			if err = s.returns.InsertItem(ctx, tx, &item); err != nil {
				return nil, err
			}
			rr.Items = append(rr.Items, item)

			if fee := g.lateFees[rent.ID]; fee > 0 {
				if err = s.ledger.ChargeLateFee(ctx, tx, userID, fee, &order.ID); err != nil {
					return nil, err
				}
			}
			if err = s.rentals.UpdateStatus(ctx, tx, rent.ID, model.RentalReturnInProgress); err != nil {
				return nil, err
			}
		}
		out = append(out, *rr)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) CreateInPersonReturn(ctx context.Context, userID int64, reqs []ReturnRequest) (out []model.RentalReturn, err error) {
	now := time.Now().UTC()
	groups, err := s.buildGroups(ctx, userID, reqs, now)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, g := range groups {
		total += g.feeTotal
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

	balance, err := s.users.LockBalance(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if balance < total {
		err = svcerr.New(ErrInsufficientBalance)
		return nil, err
	}

	for _, g := range groups {
		rr := &model.RentalReturn{
			UserID:    userID,
			LibraryID: g.library.ID,
			Status:    model.ReturnInPerson,
			LateFee:   g.feeTotal,
		}
		if err = s.returns.Insert(ctx, tx, rr); err != nil {
			return nil, err
		}
		for _, rent := range g.rentals {
			item := model.RentalReturnItem{
				RentalReturnID:   rr.ID,
				RentalID:         rent.ID,
				BookID:           rent.BookID,
				ReturnedQuantity: g.quantities[rent.ID],
			}
			if err = s.returns.InsertItem(ctx, tx, &item); err != nil {
				return nil, err
			}
			rr.Items = append(rr.Items, item)

			if fee := g.lateFees[rent.ID]; fee > 0 {
				if err = s.ledger.ChargeLateFee(ctx, tx, userID, fee, nil); err != nil {
					return nil, err
				}
			}
		}
		// no courier leg: the books change hands right now
		if err = s.quantities.UpdateQuantities(ctx, tx, rr.Items); err != nil {
			return nil, err
		}
		out = append(out, *rr)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) MarkCompleted(ctx context.Context, returnID int64) (res *model.RentalReturn, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rr, err := s.returns.ByIDForUpdate(ctx, tx, returnID)
	if err != nil {
		return nil, err
	}
	if rr == nil {
		err = svcerr.New(ErrReturnNotFound)
		return nil, err
	}
	if rr.Status != model.ReturnInProgress {
		err = svcerr.New(ErrInvalidReturnStatus)
		return nil, err
	}

	items, err := s.returns.Items(ctx, tx, rr.ID)
	if err != nil {
		return nil, err
	}
	if err = s.quantities.UpdateQuantities(ctx, tx, items); err != nil {
		return nil, err
	}
	if err = s.returns.UpdateStatus(ctx, tx, rr.ID, model.ReturnCompleted); err != nil {
		return nil, err
	}
	if rr.OrderID != nil {
		if err = s.orders.MarkDelivered(ctx, tx, *rr.OrderID); err != nil {
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	rr.Status = model.ReturnCompleted
	rr.Items = items
	return rr, nil
}

func (s *service) MyReturns(ctx context.Context, userID int64, limit, offset int) ([]model.RentalReturn, error) {
	return s.returns.ListByUser(ctx, userID, limit, offset)
}
