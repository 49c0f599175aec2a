package model

import "time"

type RentalStatus string

const (
	RentalRented            RentalStatus = "RENTED"
	RentalPartiallyReturned RentalStatus = "PARTIALLY_RETURNED"
	RentalReturned          RentalStatus = "RETURNED"
	RentalReturnInProgress  RentalStatus = "RETURN_IN_PROGRESS"
)

// Rental quantity is fixed at creation. The cumulative returned amount is
// never stored here; it is always derived by summing the return items that
// reference the rental.
type Rental struct {
	ID             int64        `json:"id"`
	UserID         int64        `json:"user_id"`
	BookID         int64        `json:"book_id"`
	LibraryID      int64        `json:"library_id"`
	OrderID        int64        `json:"order_id"`
	Quantity       int          `json:"quantity"`
	Status         RentalStatus `json:"status"`
	ReturnDeadline time.Time    `json:"return_deadline"`
	CreatedAt      time.Time    `json:"created_at"`
}
