package model

// ShoppingCart is 1:1 with a user. TotalDeliveryCost is derived from the
// items and recomputed on every mutation, never set on its own.
type ShoppingCart struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"user_id"`
	TotalDeliveryCost float64    `json:"total_delivery_cost"`
	Items             []CartItem `json:"items"`
}

// CartItem is the single entry for one library in a cart.
type CartItem struct {
	ID           int64         `json:"id"`
	CartID       int64         `json:"cart_id"`
	LibraryID    int64         `json:"library_id"`
	DeliveryCost float64       `json:"delivery_cost"`
	DistanceKm   float64       `json:"distance_km"`
	SubItems     []CartSubItem `json:"sub_items"`
}

// CartSubItem is the single entry for one book within a cart item.
type CartSubItem struct {
	ID       int64 `json:"id"`
	ItemID   int64 `json:"item_id"`
	BookID   int64 `json:"book_id"`
	Quantity int   `json:"quantity"`
}
