package cart

type AddOptionReq struct {
	QuoteOptionID int64 `json:"quote_option_id" validate:"required,gt=0"`
}

type SetAddressReq struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
}
