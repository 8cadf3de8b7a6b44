package procurement

import "time"

// Status of a purchase order.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusOrdered   Status = "ORDERED"
	StatusReceived  Status = "RECEIVED"
	StatusCancelled Status = "CANCELLED"
)

// PurchaseOrder covers supply buys for the shop, mostly paper and ink stock.
// The PO number is unique and sequential per calendar year with a narrower
// pad than the customer-facing series.
type PurchaseOrder struct {
	ID         int64     `json:"id"`
	PONumber   string    `json:"po_number"`
	SupplierID int64     `json:"supplier_id"`
	Status     Status    `json:"status"`
	TotalCost  float64   `json:"total_cost"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
