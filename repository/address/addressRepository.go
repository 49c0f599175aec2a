package addressrepo

import (
	"context"
	"database/sql"
	"errors"

	"bookrider/model"
)

type Repo interface {
	// FindExact returns (nil, nil) when no row matches; addresses are reused
	// on an exact (street, city, postal_code) match before re-geocoding.
	FindExact(ctx context.Context, street, city, postalCode string) (*model.Address, error)
	Insert(ctx context.Context, a *model.Address) error
	ByID(ctx context.Context, id int64) (*model.Address, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) FindExact(ctx context.Context, street, city, postalCode string) (*model.Address, error) {
	a := &model.Address{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, street, city, postal_code, latitude, longitude, created_at
		FROM addresses
		WHERE street = $1 AND city = $2 AND postal_code = $3`,
		street, city, postalCode,
	).Scan(&a.ID, &a.Street, &a.City, &a.PostalCode, &a.Latitude, &a.Longitude, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repo) Insert(ctx context.Context, a *model.Address) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO addresses(street, city, postal_code, latitude, longitude)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`,
		a.Street, a.City, a.PostalCode, a.Latitude, a.Longitude,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Address, error) {
	a := &model.Address{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, street, city, postal_code, latitude, longitude, created_at
		FROM addresses
		WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Street, &a.City, &a.PostalCode, &a.Latitude, &a.Longitude, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}
