// Package catalog exposes read access to the pricing catalog: service
// options, pricing rules, B2B accounts, and contract pricing. The catalog is
// owned by its CRUD collaborators; this core only reads it.
package catalog

import "encoding/json"

// B2BAccount is a business customer account with a flat fallback discount.
type B2BAccount struct {
	ID          int64
	Name        string
	DiscountPct float64
}

// ContractPricing is a per-account, per-service price override document,
// keyed inside pricing_json by tier id.
type ContractPricing struct {
	AccountID   int64
	ServiceID   int64
	PricingJSON json.RawMessage
}
