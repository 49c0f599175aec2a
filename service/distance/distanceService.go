package distancesvc

import (
	"context"
	"errors"
	"time"

	"bookrider/model"
	routingrepo "bookrider/repository/routing"
	"bookrider/service/svcerr"
)

const (
	ErrExternalRouting svcerr.Code = "EXTERNAL_ROUTING"
	ErrNoRouteFound    svcerr.Code = "NO_ROUTE_FOUND"
)

// routeTimeout bounds the only blocking upstream call in the core.
const routeTimeout = 10 * time.Second

type Cache interface {
	Find(ctx context.Context, from, to model.Coordinates) (km float64, ok bool, err error)
	Upsert(ctx context.Context, from, to model.Coordinates, km float64) error
}

type Provider interface {
	Route(ctx context.Context, from, to model.Coordinates) (float64, error)
}

type Service interface {
	// Resolve returns the driving distance in km, symmetric in its
	// arguments. The provider is consulted at most once per unordered pair;
	// later calls hit the cache.
	Resolve(ctx context.Context, from, to model.Coordinates) (float64, error)
}

type service struct {
	cache    Cache
	provider Provider
}

func New(cache Cache, provider Provider) Service {
	return &service{cache: cache, provider: provider}
}

func (s *service) Resolve(ctx context.Context, from, to model.Coordinates) (float64, error) {
	km, ok, err := s.cache.Find(ctx, from, to)
	if err != nil {
		return 0, err
	}
	if ok {
		return km, nil
	}

	rctx, cancel := context.WithTimeout(ctx, routeTimeout)
	defer cancel()
	km, err = s.provider.Route(rctx, from, to)
	if err != nil {
		if errors.Is(err, routingrepo.ErrNoRoute) {
			return 0, svcerr.Msg(ErrNoRouteFound, err.Error())
		}
		return 0, svcerr.Msg(ErrExternalRouting, err.Error())
	}

	if err := s.cache.Upsert(ctx, from, to, km); err != nil {
		return 0, err
	}
	return km, nil
}
