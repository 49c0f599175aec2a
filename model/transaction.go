package model

import "time"

type TransactionType string

const (
	TxUserDeposit  TransactionType = "USER_DEPOSIT"
	TxUserPayment  TransactionType = "USER_PAYMENT"
	TxDriverPayout TransactionType = "DRIVER_PAYOUT"
	TxLateFee      TransactionType = "LATE_FEE"
)

// Transaction is an immutable ledger entry. Every change to a user balance is
// written together with exactly one of these, in the same database tx.
type Transaction struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	OrderID   *int64          `json:"order_id,omitempty"`
	Amount    float64         `json:"amount"`
	Type      TransactionType `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
}
