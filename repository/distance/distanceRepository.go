package distancerepo

import (
	"context"
	"database/sql"
	"errors"

	"bookrider/model"
)

type Repo interface {
	// Find checks the cache for either direction of the pair; A→B and B→A
	// are the same distance.
	Find(ctx context.Context, from, to model.Coordinates) (km float64, ok bool, err error)
	// Upsert stores under the ordered pair. The unique constraint absorbs the
	// benign race when two requests resolve the same pair at once.
	Upsert(ctx context.Context, from, to model.Coordinates, km float64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Find(ctx context.Context, from, to model.Coordinates) (float64, bool, error) {
	const q = `
		SELECT distance_km
		FROM distance_cache
		WHERE (from_lat = $1 AND from_lng = $2 AND to_lat = $3 AND to_lng = $4)
		   OR (from_lat = $3 AND from_lng = $4 AND to_lat = $1 AND to_lng = $2)
		LIMIT 1`
	var km float64
	err := r.db.QueryRowContext(ctx, q, from.Lat, from.Lng, to.Lat, to.Lng).Scan(&km)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return km, true, nil
}

func (r *repo) Upsert(ctx context.Context, from, to model.Coordinates, km float64) error {
	const q = `
		INSERT INTO distance_cache (from_lat, from_lng, to_lat, to_lng, distance_km)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (from_lat, from_lng, to_lat, to_lng)
		DO UPDATE SET distance_km = EXCLUDED.distance_km`
	_, err := r.db.ExecContext(ctx, q, from.Lat, from.Lng, to.Lat, to.Lng, km)
	return err
}
