package catalogrepo

import (
	"context"
	"database/sql"
	"errors"

	"bookrider/model"
)

// Catalog content (books, libraries, holdings) is written by another system;
// this repo only reads the lookups the pricing core needs.
type Repo interface {
	BookByID(ctx context.Context, id int64) (*model.Book, error)
	LibraryByID(ctx context.Context, id int64) (*model.Library, error)
	// NearestHolding lists up to limit libraries that hold the book, closest
	// first by great-circle distance to (lat, lng).
	NearestHolding(ctx context.Context, bookID int64, lat, lng float64, limit int) ([]model.Library, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) BookByID(ctx context.Context, id int64) (*model.Book, error) {
	b := &model.Book{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, author
		FROM books
		WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Title, &b.Author)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) LibraryByID(ctx context.Context, id int64) (*model.Library, error) {
	l := &model.Library{}
	err := r.db.QueryRowContext(ctx, `
		SELECT l.id, l.name, l.address_id, a.latitude, a.longitude
		FROM libraries l
		JOIN addresses a ON a.id = l.address_id
		WHERE l.id = $1`,
		id,
	).Scan(&l.ID, &l.Name, &l.AddressID, &l.Latitude, &l.Longitude)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *repo) NearestHolding(ctx context.Context, bookID int64, lat, lng float64, limit int) ([]model.Library, error) {
	// haversine in SQL; good enough for ranking candidates, driving distance
	// comes from the routing provider afterwards
	const q = `
		SELECT l.id, l.name, l.address_id, a.latitude, a.longitude
		FROM libraries l
		JOIN addresses a ON a.id = l.address_id
		JOIN library_books lb ON lb.library_id = l.id
		WHERE lb.book_id = $1
		ORDER BY 6371 * acos(least(1.0,
			cos(radians($2)) * cos(radians(a.latitude)) * cos(radians(a.longitude) - radians($3))
			+ sin(radians($2)) * sin(radians(a.latitude))))
		LIMIT $4`
	rows, err := r.db.QueryContext(ctx, q, bookID, lat, lng, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Library
	for rows.Next() {
		var l model.Library
		if err := rows.Scan(&l.ID, &l.Name, &l.AddressID, &l.Latitude, &l.Longitude); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
