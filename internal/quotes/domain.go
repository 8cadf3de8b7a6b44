// Package quotes owns the estimate lifecycle of customer quotes: reading the
// configured answers, pricing them, and persisting the resulting subtotal.
package quotes

import "time"

// Quote is a priced configuration request, prior to becoming a binding order.
// EstimateSubtotal is the only field this package mutates; quote intake and
// editing belong to other collaborators.
type Quote struct {
	ID               int64
	CustomerID       int64
	ServiceID        int64
	TierID           *int64
	EstimateSubtotal float64
	UpdatedAt        time.Time
}
