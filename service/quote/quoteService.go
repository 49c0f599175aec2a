package quotesvc

import (
	"context"
	"sort"
	"time"

	"bookrider/model"
	"bookrider/service/svcerr"
)

const (
	ErrInvalidQuantity svcerr.Code = "INVALID_QUANTITY"
	ErrBookNotFound    svcerr.Code = "BOOK_NOT_FOUND"
	ErrMissingAddress  svcerr.Code = "MISSING_ADDRESS"
	ErrLibraryNotFound svcerr.Code = "LIBRARY_NOT_FOUND"
)

// maxOptions caps how many libraries a quote offers.
const maxOptions = 5

type CatalogRepo interface {
	BookByID(ctx context.Context, id int64) (*model.Book, error)
	NearestHolding(ctx context.Context, bookID int64, lat, lng float64, limit int) ([]model.Library, error)
}

type UserRepo interface {
	ByID(ctx context.Context, id int64) (*model.User, error)
}

type AddressRepo interface {
	ByID(ctx context.Context, id int64) (*model.Address, error)
}

type CartRepo interface {
	HasLibraryBookPair(ctx context.Context, userID, libraryID, bookID int64) (bool, error)
}

type QuoteRepo interface {
	Insert(ctx context.Context, q *model.Quote) error
}

type Resolver interface {
	Resolve(ctx context.Context, from, to model.Coordinates) (float64, error)
}

type Pricer interface {
	DeliveryCost(distanceKm float64, quantity int, libraryInCart bool) (float64, error)
}

type Service interface {
	// Generate prices a (book, quantity) request against the nearest
	// libraries that hold the book and persists the ranked options.
	Generate(ctx context.Context, userID, bookID int64, quantity int) (*model.Quote, error)
}

type service struct {
	catalog   CatalogRepo
	users     UserRepo
	addresses AddressRepo
	carts     CartRepo
	quotes    QuoteRepo
	distance  Resolver
	pricing   Pricer
}

func New(catalog CatalogRepo, users UserRepo, addresses AddressRepo, carts CartRepo,
	quotes QuoteRepo, distance Resolver, pricing Pricer) Service {
	return &service{
		catalog:   catalog,
		users:     users,
		addresses: addresses,
		carts:     carts,
		quotes:    quotes,
		distance:  distance,
		pricing:   pricing,
	}
}

func (s *service) Generate(ctx context.Context, userID, bookID int64, quantity int) (*model.Quote, error) {
	if quantity <= 0 {
		return nil, svcerr.New(ErrInvalidQuantity)
	}

	book, err := s.catalog.BookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, svcerr.New(ErrBookNotFound)
	}

	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.DeliveryAddressID == nil {
		return nil, svcerr.New(ErrMissingAddress)
	}
	addr, err := s.addresses.ByID(ctx, *user.DeliveryAddressID)
	if err != nil {
		return nil, err
	}

	libs, err := s.catalog.NearestHolding(ctx, bookID, addr.Latitude, addr.Longitude, maxOptions)
	if err != nil {
		return nil, err
	}
	if len(libs) == 0 {
		return nil, svcerr.New(ErrLibraryNotFound)
	}

	options := make([]model.QuoteOption, 0, len(libs))
	for _, lib := range libs {
		inCart, err := s.carts.HasLibraryBookPair(ctx, userID, lib.ID, bookID)
		if err != nil {
			return nil, err
		}
		km, err := s.distance.Resolve(ctx, addr.Coordinates(), lib.Coordinates())
		if err != nil {
			return nil, err
		}
		cost, err := s.pricing.DeliveryCost(km, quantity, inCart)
		if err != nil {
			return nil, err
		}
		options = append(options, model.QuoteOption{
			LibraryID:   lib.ID,
			LibraryName: lib.Name,
			DistanceKm:  km,
			TotalCost:   cost,
		})
	}
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].TotalCost < options[j].TotalCost
	})

	quote := &model.Quote{
		UserID:     userID,
		BookID:     bookID,
		Quantity:   quantity,
		ValidUntil: time.Now().UTC().Add(model.QuoteTTL),
		Options:    options,
	}
	if err := s.quotes.Insert(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}
