// Package orders keeps an order's outstanding balance consistent with its
// payment history and allocates order numbers on creation.
package orders

import "time"

// PaymentStatus enumerates payment states. Only COMPLETED and REFUNDED move
// the ledger; the rest contribute zero.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentRefunded, PaymentFailed:
		return true
	}
	return false
}

// Order model. BalanceDue is denormalized from the payment history and only
// ever written together with a payment mutation, inside the same transaction.
type Order struct {
	ID          int64
	OrderNumber string
	CustomerID  int64
	QuoteID     *int64
	TotalAmount float64
	BalanceDue  float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Payment model.
type Payment struct {
	ID        int64
	OrderID   int64
	Reference string
	Amount    float64
	Status    PaymentStatus
	Method    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
