package invoices

import "time"

// Status of an invoice.
type Status string

const (
	StatusIssued Status = "ISSUED"
	StatusPaid   Status = "PAID"
	StatusVoid   Status = "VOID"
)

// Invoice snapshots an order's total at issue time. The invoice number is
// unique and sequential per calendar year.
type Invoice struct {
	ID            int64     `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	OrderID       int64     `json:"order_id"`
	CustomerID    int64     `json:"customer_id"`
	TotalAmount   float64   `json:"total_amount"`
	Status        Status    `json:"status"`
	IssuedAt      time.Time `json:"issued_at"`
	DueAt         time.Time `json:"due_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
