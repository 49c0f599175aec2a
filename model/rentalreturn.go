package model

import "time"

type RentalReturnStatus string

const (
	ReturnInProgress RentalReturnStatus = "IN_PROGRESS"
	ReturnInPerson   RentalReturnStatus = "IN_PERSON"
	ReturnCompleted  RentalReturnStatus = "COMPLETED"
)

// RentalReturn covers one (library, return request) pair. OrderID is set only
// for courier returns.
type RentalReturn struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"user_id"`
	LibraryID int64              `json:"library_id"`
	OrderID   *int64             `json:"order_id,omitempty"`
	Status    RentalReturnStatus `json:"status"`
	LateFee   float64            `json:"late_fee"`
	CreatedAt time.Time          `json:"created_at"`
	Items     []RentalReturnItem `json:"items,omitempty"`
}

type RentalReturnItem struct {
	ID               int64 `json:"id"`
	RentalReturnID   int64 `json:"rental_return_id"`
	RentalID         int64 `json:"rental_id"`
	BookID           int64 `json:"book_id"`
	ReturnedQuantity int   `json:"returned_quantity"`
}
