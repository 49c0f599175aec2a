package cartsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bookrider/model"
	routingrepo "bookrider/repository/routing"
	"bookrider/service/svcerr"
)

const (
	ErrQuoteNotFound   svcerr.Code = "QUOTE_NOT_FOUND"
	ErrQuoteExpired    svcerr.Code = "QUOTE_EXPIRED"
	ErrSubItemNotFound svcerr.Code = "CART_SUB_ITEM_NOT_FOUND"
	ErrAddressNotFound svcerr.Code = "ADDRESS_NOT_FOUND"
	ErrGeocodingFailed svcerr.Code = "GEOCODING_FAILED"
)

type QuoteRepo interface {
	OptionWithQuote(ctx context.Context, optionID int64) (*model.QuoteOption, *model.Quote, error)
}

type Repo interface {
	GetOrCreate(ctx context.Context, tx *sql.Tx, userID int64) (*model.ShoppingCart, error)
	Full(ctx context.Context, userID int64) (*model.ShoppingCart, error)

	ItemForLibrary(ctx context.Context, tx *sql.Tx, cartID, libraryID int64) (*model.CartItem, error)
	InsertItem(ctx context.Context, tx *sql.Tx, item *model.CartItem) error
	UpdateItemCost(ctx context.Context, tx *sql.Tx, itemID int64, cost float64) error
	DeleteItem(ctx context.Context, tx *sql.Tx, itemID int64) error

	SubItemForBook(ctx context.Context, tx *sql.Tx, itemID, bookID int64) (*model.CartSubItem, error)
	SubItemOwned(ctx context.Context, tx *sql.Tx, subItemID, userID int64) (*model.CartSubItem, *model.CartItem, error)
	InsertSubItem(ctx context.Context, tx *sql.Tx, sub *model.CartSubItem) error
	UpdateSubItemQuantity(ctx context.Context, tx *sql.Tx, subItemID int64, quantity int) error
	DeleteSubItem(ctx context.Context, tx *sql.Tx, subItemID int64) error

	CountSubItems(ctx context.Context, tx *sql.Tx, itemID int64) (int, error)
	SumSubItemQuantities(ctx context.Context, tx *sql.Tx, itemID int64) (int, error)
	SumItemCosts(ctx context.Context, tx *sql.Tx, cartID int64) (float64, error)
	SetCartTotal(ctx context.Context, tx *sql.Tx, cartID int64, total float64) error
}

type AddressRepo interface {
	FindExact(ctx context.Context, street, city, postalCode string) (*model.Address, error)
	Insert(ctx context.Context, a *model.Address) error
}

type UserRepo interface {
	SetDeliveryAddress(ctx context.Context, userID, addressID int64) error
}

type Geocoder interface {
	Geocode(ctx context.Context, street, city, postalCode string) (model.Coordinates, error)
}

type Pricer interface {
	DeliveryCost(distanceKm float64, quantity int, libraryInCart bool) (float64, error)
}

type Service interface {
	// AddOption folds an accepted quote option into the cart: one item per
	// library, one sub-item per book, totals recomputed in the same tx.
	AddOption(ctx context.Context, userID, quoteOptionID int64) (*model.ShoppingCart, error)
	RemoveSubItem(ctx context.Context, userID, subItemID int64) (*model.ShoppingCart, error)
	Get(ctx context.Context, userID int64) (*model.ShoppingCart, error)
	SetDeliveryAddress(ctx context.Context, userID int64, street, city, postalCode string) (*model.Address, error)
}

type service struct {
	db        *sql.DB
	carts     Repo
	quotes    QuoteRepo
	addresses AddressRepo
	users     UserRepo
	geocoder  Geocoder
	pricing   Pricer
}

func New(db *sql.DB, carts Repo, quotes QuoteRepo, addresses AddressRepo,
	users UserRepo, geocoder Geocoder, pricing Pricer) Service {
	return &service{
		db:        db,
		carts:     carts,
		quotes:    quotes,
		addresses: addresses,
		users:     users,
		geocoder:  geocoder,
		pricing:   pricing,
	}
}

func (s *service) AddOption(ctx context.Context, userID, quoteOptionID int64) (*model.ShoppingCart, error) {
	opt, quote, err := s.quotes.OptionWithQuote(ctx, quoteOptionID)
	if err != nil {
		return nil, err
	}
	// a foreign user's option is reported the same as a missing one
	if opt == nil || quote.UserID != userID {
		return nil, svcerr.New(ErrQuoteNotFound)
	}
	if quote.Expired(time.Now().UTC()) {
		return nil, svcerr.New(ErrQuoteExpired)
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

	cart, err := s.carts.GetOrCreate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.carts.ItemForLibrary(ctx, tx, cart.ID, opt.LibraryID)
	if err != nil {
		return nil, err
	}

	if item == nil {
		// first book from this library: the option's price already covers
		// the base trip
		item = &model.CartItem{
			CartID:       cart.ID,
			LibraryID:    opt.LibraryID,
			DeliveryCost: opt.TotalCost,
			DistanceKm:   opt.DistanceKm,
		}
		if err = s.carts.InsertItem(ctx, tx, item); err != nil {
			return nil, err
		}
		sub := &model.CartSubItem{ItemID: item.ID, BookID: quote.BookID, Quantity: quote.Quantity}
		if err = s.carts.InsertSubItem(ctx, tx, sub); err != nil {
			return nil, err
		}
	} else {
		sub, serr := s.carts.SubItemForBook(ctx, tx, item.ID, quote.BookID)
		if serr != nil {
			err = serr
			return nil, err
		}
		if sub != nil {
			if err = s.carts.UpdateSubItemQuantity(ctx, tx, sub.ID, sub.Quantity+quote.Quantity); err != nil {
				return nil, err
			}
		} else {
			sub = &model.CartSubItem{ItemID: item.ID, BookID: quote.BookID, Quantity: quote.Quantity}
			if err = s.carts.InsertSubItem(ctx, tx, sub); err != nil {
				return nil, err
			}
		}
		if err = s.repriceItem(ctx, tx, item); err != nil {
			return nil, err
		}
	}

	if err = s.recomputeTotal(ctx, tx, cart.ID); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return s.carts.Full(ctx, userID)
}

func (s *service) RemoveSubItem(ctx context.Context, userID, subItemID int64) (*model.ShoppingCart, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	sub, item, err := s.carts.SubItemOwned(ctx, tx, subItemID, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		err = svcerr.New(ErrSubItemNotFound)
		return nil, err
	}

	if err = s.carts.DeleteSubItem(ctx, tx, sub.ID); err != nil {
		return nil, err
	}
	left, err := s.carts.CountSubItems(ctx, tx, item.ID)
	if err != nil {
		return nil, err
	}
	if left == 0 {
		if err = s.carts.DeleteItem(ctx, tx, item.ID); err != nil {
			return nil, err
		}
	} else if err = s.repriceItem(ctx, tx, item); err != nil {
		return nil, err
	}

	if err = s.recomputeTotal(ctx, tx, item.CartID); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return s.carts.Full(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID int64) (*model.ShoppingCart, error) {
	return s.carts.Full(ctx, userID)
}

func (s *service) SetDeliveryAddress(ctx context.Context, userID int64, street, city, postalCode string) (*model.Address, error) {
	addr, err := s.addresses.FindExact(ctx, street, city, postalCode)
	if err != nil {
		return nil, err
	}
	if addr == nil {
		coords, err := s.geocoder.Geocode(ctx, street, city, postalCode)
		if err != nil {
			if errors.Is(err, routingrepo.ErrNoResult) {
				return nil, svcerr.New(ErrAddressNotFound)
			}
			return nil, svcerr.Msg(ErrGeocodingFailed, err.Error())
		}
		addr = &model.Address{
			Street:     street,
			City:       city,
			PostalCode: postalCode,
			Latitude:   coords.Lat,
			Longitude:  coords.Lng,
		}
		if err := s.addresses.Insert(ctx, addr); err != nil {
			return nil, err
		}
	}
	if err := s.users.SetDeliveryAddress(ctx, userID, addr.ID); err != nil {
		return nil, err
	}
	return addr, nil
}

// repriceItem recomputes an item's delivery cost from the combined quantity
// at its library. The base trip stays priced once; each unit past the first
// adds the marginal rate, which is exactly what the discounted quote options
// for this library promised.
func (s *service) repriceItem(ctx context.Context, tx *sql.Tx, item *model.CartItem) error {
	combined, err := s.carts.SumSubItemQuantities(ctx, tx, item.ID)
	if err != nil {
		return err
	}
	cost, err := s.pricing.DeliveryCost(item.DistanceKm, combined, false)
	if err != nil {
		return err
	}
	return s.carts.UpdateItemCost(ctx, tx, item.ID, cost)
}

func (s *service) recomputeTotal(ctx context.Context, tx *sql.Tx, cartID int64) error {
	total, err := s.carts.SumItemCosts(ctx, tx, cartID)
	if err != nil {
		return err
	}
	return s.carts.SetCartTotal(ctx, tx, cartID, total)
}
