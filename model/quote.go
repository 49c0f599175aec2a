package model

import "time"

// QuoteTTL is how long quote options stay accept-able.
const QuoteTTL = 15 * time.Minute

type Quote struct {
	ID         int64         `json:"id"`
	UserID     int64         `json:"user_id"`
	BookID     int64         `json:"book_id"`
	Quantity   int           `json:"quantity"`
	ValidUntil time.Time     `json:"valid_until"`
	Options    []QuoteOption `json:"options"`
}

func (q Quote) Expired(now time.Time) bool { return now.After(q.ValidUntil) }

// QuoteOption is one priced library choice; options are stored sorted
// ascending by TotalCost.
type QuoteOption struct {
	ID          int64   `json:"id"`
	QuoteID     int64   `json:"quote_id"`
	LibraryID   int64   `json:"library_id"`
	LibraryName string  `json:"library_name,omitempty"`
	DistanceKm  float64 `json:"distance_km"`
	TotalCost   float64 `json:"total_cost"`
}
