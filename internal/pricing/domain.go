// Package pricing computes quote estimate subtotals from configured option
// answers, active pricing rules, and B2B contract overrides. The package is
// pure: it performs no I/O and never fails. Malformed rule or contract
// configuration degrades to "contributes nothing" so one bad row can never
// block estimate generation.
package pricing

import "encoding/json"

// RuleType enumerates pricing rule kinds.
type RuleType string

const (
	RuleVolumeDiscount    RuleType = "VOLUME_DISCOUNT"
	RuleRushFee           RuleType = "RUSH_FEE"
	RuleSeasonalPromotion RuleType = "SEASONAL_PROMOTION"
	RuleCustom            RuleType = "CUSTOM"
)

// QuantityKey is the answer key carrying the order quantity used by volume
// discounts and contract quantity pricing.
const QuantityKey = "quantity"

// ServiceOption describes one configurable option of a service. PricingImpact
// maps stringified answer values to monetary deltas, e.g. {"large": 10, "xl": 25}.
type ServiceOption struct {
	ID            int64
	ServiceID     int64
	Key           string
	PricingImpact json.RawMessage
	SortOrder     int
}

// Rule is a pricing rule. A nil ServiceID scopes the rule to every service.
// Only VOLUME_DISCOUNT rules are evaluated today; the remaining types are
// loaded but reserved for future handlers.
type Rule struct {
	ID        int64
	ServiceID *int64
	Type      RuleType
	Config    json.RawMessage
	Active    bool
}

// ContractContext carries B2B pricing data resolved for a customer account.
// Pricing holds the contract pricing_json for the quote's service when a
// contract row exists; when it is empty DiscountPct is the account's flat
// fallback discount.
type ContractContext struct {
	DiscountPct float64
	Pricing     json.RawMessage
}

// EvaluateInput bundles everything Evaluate needs. Options must be in their
// stable catalog order; Answers are keyed by option key.
type EvaluateInput struct {
	ServiceID int64
	TierID    *int64
	Options   []ServiceOption
	Answers   map[string]json.RawMessage
	Rules     []Rule
	Contract  *ContractContext
}
