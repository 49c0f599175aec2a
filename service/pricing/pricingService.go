package pricingsvc

import (
	"time"

	"bookrider/service/svcerr"
	"bookrider/util/money"
)

const (
	ErrInvalidQuantity svcerr.Code = "INVALID_QUANTITY"
)

// Delivery pricing constants. A trip is charged once per library; every book
// beyond the first at the same library only pays the marginal rate.
const (
	BaseDeliveryFee = 10.00
	PerKmFee        = 0.50
	MarginalBookFee = 1.00
)

type Service interface {
	// DeliveryCost prices a delivery of quantity books over distanceKm.
	// libraryInCart means the base trip is already paid for by an existing
	// cart item, so only the marginal rate applies.
	DeliveryCost(distanceKm float64, quantity int, libraryInCart bool) (float64, error)

	// LateFee is flat per rental and independent of its quantity: whole days
	// overdue times the daily rate, zero when the deadline has not passed.
	LateFee(returnDeadline, now time.Time) float64
}

type service struct {
	dailyLateFee float64
}

func New(dailyLateFee float64) Service { return &service{dailyLateFee: dailyLateFee} }

func (s *service) DeliveryCost(distanceKm float64, quantity int, libraryInCart bool) (float64, error) {
	if quantity <= 0 {
		return 0, svcerr.New(ErrInvalidQuantity)
	}
	if libraryInCart {
		return money.CeilCents(MarginalBookFee * float64(quantity)), nil
	}
	cost := BaseDeliveryFee + PerKmFee*distanceKm + MarginalBookFee*float64(quantity-1)
	return money.CeilCents(cost), nil
}

func (s *service) LateFee(returnDeadline, now time.Time) float64 {
	days := int(now.Sub(returnDeadline).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return money.CeilCents(float64(days) * s.dailyLateFee)
}
