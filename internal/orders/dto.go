package orders

// CreateOrderRequest is the payload for POST /orders.
type CreateOrderRequest struct {
	CustomerID  int64   `json:"customer_id" validate:"required,gt=0"`
	QuoteID     *int64  `json:"quote_id,omitempty"`
	TotalAmount float64 `json:"total_amount" validate:"required,gt=0"`
}

// RecordPaymentRequest is the payload for POST /orders/{id}/payments.
type RecordPaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required"`
	Status string  `json:"status" validate:"omitempty,oneof=PENDING COMPLETED REFUNDED FAILED"`
}

// UpdatePaymentStatusRequest is the payload for payment status transitions.
type UpdatePaymentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING COMPLETED REFUNDED FAILED"`
}

// OrderResponse is the serialized order view.
type OrderResponse struct {
	ID          int64   `json:"id"`
	OrderNumber string  `json:"order_number"`
	CustomerID  int64   `json:"customer_id"`
	QuoteID     *int64  `json:"quote_id,omitempty"`
	TotalAmount float64 `json:"total_amount"`
	BalanceDue  float64 `json:"balance_due"`
}

// BalanceResponse reports the reconciled ledger state.
type BalanceResponse struct {
	OrderID     int64   `json:"order_id"`
	TotalAmount float64 `json:"total_amount"`
	BalanceDue  float64 `json:"balance_due"`
}

func orderResponse(o *Order) OrderResponse {
	return OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		QuoteID:     o.QuoteID,
		TotalAmount: o.TotalAmount,
		BalanceDue:  o.BalanceDue,
	}
}
