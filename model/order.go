package model

import "time"

type OrderStatus string

const (
	OrderPending        OrderStatus = "PENDING"
	OrderDriverAccepted OrderStatus = "DRIVER_ACCEPTED"
	OrderInTransit      OrderStatus = "IN_TRANSIT"
	OrderDelivered      OrderStatus = "DELIVERED"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
)

type OrderKind string

const (
	OrderDelivery OrderKind = "DELIVERY"
	OrderReturn   OrderKind = "RETURN"
)

// Order snapshots one cart item (or one return group) at checkout time.
type Order struct {
	ID                   int64         `json:"id"`
	UserID               int64         `json:"user_id"`
	LibraryID            int64         `json:"library_id"`
	DriverID             *int64        `json:"driver_id,omitempty"`
	PickupAddressID      int64         `json:"pickup_address_id"`
	DestinationAddressID int64         `json:"destination_address_id"`
	Kind                 OrderKind     `json:"kind"`
	Amount               float64       `json:"amount"`
	Status               OrderStatus   `json:"status"`
	PaymentStatus        PaymentStatus `json:"payment_status"`
	AcceptedAt           *time.Time    `json:"accepted_at,omitempty"`
	PickedUpAt           *time.Time    `json:"picked_up_at,omitempty"`
	DeliveredAt          *time.Time    `json:"delivered_at,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	Items                []OrderItem   `json:"items,omitempty"`
}

type OrderItem struct {
	ID       int64 `json:"id"`
	OrderID  int64 `json:"order_id"`
	BookID   int64 `json:"book_id"`
	Quantity int   `json:"quantity"`
}
