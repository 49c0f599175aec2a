package quoterepo

import (
	"context"
	"database/sql"
	"errors"

	"bookrider/model"
)

type Repo interface {
	// Insert persists the quote and its options in one statement batch; the
	// options slice keeps its (cost-ascending) order.
	Insert(ctx context.Context, q *model.Quote) error
	// OptionWithQuote returns (nil, nil, nil) when the option does not exist.
	OptionWithQuote(ctx context.Context, optionID int64) (*model.QuoteOption, *model.Quote, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, q *model.Quote) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO quotes (user_id, book_id, quantity, valid_until)
		VALUES ($1,$2,$3,$4)
		RETURNING id`,
		q.UserID, q.BookID, q.Quantity, q.ValidUntil,
	).Scan(&q.ID)
	if err != nil {
		return err
	}

	for i := range q.Options {
		opt := &q.Options[i]
		opt.QuoteID = q.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO quote_options (quote_id, library_id, distance_km, total_cost)
			VALUES ($1,$2,$3,$4)
			RETURNING id`,
			opt.QuoteID, opt.LibraryID, opt.DistanceKm, opt.TotalCost,
		).Scan(&opt.ID)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *repo) OptionWithQuote(ctx context.Context, optionID int64) (*model.QuoteOption, *model.Quote, error) {
	opt := &model.QuoteOption{}
	q := &model.Quote{}
	err := r.db.QueryRowContext(ctx, `
		SELECT o.id, o.quote_id, o.library_id, o.distance_km, o.total_cost,
		       q.id, q.user_id, q.book_id, q.quantity, q.valid_until
		FROM quote_options o
		JOIN quotes q ON q.id = o.quote_id
		WHERE o.id = $1`,
		optionID,
	).Scan(&opt.ID, &opt.QuoteID, &opt.LibraryID, &opt.DistanceKm, &opt.TotalCost,
		&q.ID, &q.UserID, &q.BookID, &q.Quantity, &q.ValidUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return opt, q, nil
}
