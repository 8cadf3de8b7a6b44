package pricing

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Evaluate computes the estimate subtotal for one quote configuration.
//
// Option impacts are summed first, in catalog order. Qualifying volume
// discounts then apply sequentially and multiplicatively in rule-id order,
// each picking its highest threshold at or below the quantity answer. A B2B
// contract, when present, overrides the running subtotal with
// quantity_breaks, then quantity_pricing, then base_price (later wins); an
// account without a contract row falls back to its flat discount. The result
// is rounded to cents, half away from zero. A negative subtotal is possible
// under pathological rule data and is left for callers to police.
func Evaluate(in EvaluateInput) decimal.Decimal {
	subtotal := decimal.Zero

	for _, opt := range in.Options {
		raw, ok := in.Answers[opt.Key]
		if !ok {
			continue
		}
		key, ok := stringKey(raw)
		if !ok {
			continue
		}
		if delta, ok := decimalMap(opt.PricingImpact)[key]; ok {
			subtotal = subtotal.Add(delta)
		}
	}

	qty, hasQty := quantityOf(in.Answers)

	// Stacked discounts are order sensitive; rule-id order keeps repeated
	// evaluations of the same quote deterministic.
	rules := make([]Rule, len(in.Rules))
	copy(rules, in.Rules)
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })

	for _, rule := range rules {
		if !rule.Active || rule.Type != RuleVolumeDiscount {
			continue
		}
		if rule.ServiceID != nil && *rule.ServiceID != in.ServiceID {
			continue
		}
		if !hasQty {
			continue
		}
		pct, ok := bestThreshold(rule.Config, qty)
		if !ok {
			continue
		}
		subtotal = applyDiscount(subtotal, pct)
	}

	subtotal = applyContract(subtotal, in, qty, hasQty)

	return subtotal.Round(2)
}

// quantityOf reads the quantity answer. Zero and negative quantities do not
// qualify for discounts or quantity pricing.
func quantityOf(answers map[string]json.RawMessage) (decimal.Decimal, bool) {
	raw, ok := answers[QuantityKey]
	if !ok {
		return decimal.Decimal{}, false
	}
	qty, ok := asDecimal(raw)
	if !ok || qty.Sign() <= 0 {
		return decimal.Decimal{}, false
	}
	return qty, true
}

// bestThreshold picks the largest min_qty at or below qty.
func bestThreshold(config json.RawMessage, qty decimal.Decimal) (decimal.Decimal, bool) {
	var best *threshold
	steps := thresholdsOf(config)
	for i := range steps {
		step := &steps[i]
		if step.MinQty.GreaterThan(qty) {
			continue
		}
		if best == nil || step.MinQty.GreaterThan(best.MinQty) {
			best = step
		}
	}
	if best == nil {
		return decimal.Decimal{}, false
	}
	return best.DiscountPct, true
}

func applyDiscount(subtotal, pct decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(hundred.Sub(pct)).Div(hundred)
}

func applyContract(subtotal decimal.Decimal, in EvaluateInput, qty decimal.Decimal, hasQty bool) decimal.Decimal {
	if in.Contract == nil {
		return subtotal
	}
	if len(in.Contract.Pricing) == 0 {
		if in.Contract.DiscountPct > 0 {
			return applyDiscount(subtotal, decimal.NewFromFloat(in.Contract.DiscountPct))
		}
		return subtotal
	}
	if in.TierID == nil {
		return subtotal
	}
	tier := tierFor(in.Contract.Pricing, *in.TierID)
	if tier == nil {
		return subtotal
	}
	if hasQty {
		if price, ok := tier.QuantityBreaks[qty.String()]; ok {
			subtotal = price
		}
		if price, ok := tier.QuantityPricing[qty.String()]; ok {
			subtotal = price
		}
	}
	if tier.BasePrice != nil {
		subtotal = *tier.BasePrice
	}
	return subtotal
}
