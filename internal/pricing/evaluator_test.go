package pricing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func int64Ptr(v int64) *int64 { return &v }

func sizeOption(impact string) ServiceOption {
	return ServiceOption{ID: 1, ServiceID: 7, Key: "size", PricingImpact: raw(impact), SortOrder: 1}
}

func volumeRule(id int64, serviceID *int64, config string) Rule {
	return Rule{ID: id, ServiceID: serviceID, Type: RuleVolumeDiscount, Config: raw(config), Active: true}
}

func TestEvaluateNoAnswers(t *testing.T) {
	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		Options:   []ServiceOption{sizeOption(`{"large": 10}`)},
	})
	require.True(t, got.IsZero())
	assert.Equal(t, "0", got.String())
}

func TestEvaluateOptionImpacts(t *testing.T) {
	option := sizeOption(`{"large": 10, "xl": 25}`)

	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{"matching value", `"large"`, "10"},
		{"other matching value", `"xl"`, "25"},
		{"unknown value", `"small"`, "0"},
		{"numeric answer keyed as string", `10`, "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(EvaluateInput{
				ServiceID: 7,
				Options:   []ServiceOption{option},
				Answers:   map[string]json.RawMessage{"size": raw(tc.answer)},
			})
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestEvaluateSumsAcrossOptions(t *testing.T) {
	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		Options: []ServiceOption{
			{ID: 1, ServiceID: 7, Key: "size", PricingImpact: raw(`{"large": 10}`), SortOrder: 1},
			{ID: 2, ServiceID: 7, Key: "finish", PricingImpact: raw(`{"gloss": 4.5}`), SortOrder: 2},
			{ID: 3, ServiceID: 7, Key: "mount", PricingImpact: raw(`{"wall": "7.25"}`), SortOrder: 3},
		},
		Answers: map[string]json.RawMessage{
			"size":   raw(`"large"`),
			"finish": raw(`"gloss"`),
			"mount":  raw(`"wall"`),
		},
	})
	assert.Equal(t, "21.75", got.String())
}

func TestEvaluateIgnoresMalformedImpact(t *testing.T) {
	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		Options: []ServiceOption{
			{ID: 1, ServiceID: 7, Key: "size", PricingImpact: raw(`{"large": "not a number"}`), SortOrder: 1},
			{ID: 2, ServiceID: 7, Key: "finish", PricingImpact: raw(`broken json`), SortOrder: 2},
			{ID: 3, ServiceID: 7, Key: "mount", PricingImpact: raw(`{"wall": 5}`), SortOrder: 3},
		},
		Answers: map[string]json.RawMessage{
			"size":   raw(`"large"`),
			"finish": raw(`"gloss"`),
			"mount":  raw(`"wall"`),
		},
	})
	assert.Equal(t, "5", got.String())
}

func TestEvaluateVolumeDiscountPicksHighestThreshold(t *testing.T) {
	config := `{"thresholds": [{"min_qty": 10, "discount_pct": 5}, {"min_qty": 50, "discount_pct": 15}]}`

	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		Options:   []ServiceOption{sizeOption(`{"large": 100}`)},
		Answers: map[string]json.RawMessage{
			"size":     raw(`"large"`),
			"quantity": raw(`60`),
		},
		Rules: []Rule{volumeRule(1, int64Ptr(7), config)},
	})
	assert.Equal(t, "85", got.String())
}

func TestEvaluateVolumeDiscountBelowAllThresholds(t *testing.T) {
	config := `{"thresholds": [{"min_qty": 10, "discount_pct": 5}]}`

	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		Options:   []ServiceOption{sizeOption(`{"large": 100}`)},
		Answers: map[string]json.RawMessage{
			"size":     raw(`"large"`),
			"quantity": raw(`9`),
		},
		Rules: []Rule{volumeRule(1, int64Ptr(7), config)},
	})
	assert.Equal(t, "100", got.String())
}

func TestEvaluateVolumeDiscountSkipsWithoutQuantity(t *testing.T) {
	config := `{"thresholds": [{"min_qty": 1, "discount_pct": 50}]}`

	for name, answers := range map[string]map[string]json.RawMessage{
		"absent":   {"size": raw(`"large"`)},
		"zero":     {"size": raw(`"large"`), "quantity": raw(`0`)},
		"negative": {"size": raw(`"large"`), "quantity": raw(`-3`)},
	} {
		t.Run(name, func(t *testing.T) {
			got := Evaluate(EvaluateInput{
				ServiceID: 7,
				Options:   []ServiceOption{sizeOption(`{"large": 100}`)},
				Answers:   answers,
				Rules:     []Rule{volumeRule(1, int64Ptr(7), config)},
			})
			assert.Equal(t, "100", got.String())
		})
	}
}

func TestEvaluateDiscountsStackMultiplicatively(t *testing.T) {
	global := volumeRule(2, nil, `{"thresholds": [{"min_qty": 10, "discount_pct": 10}]}`)
	scoped := volumeRule(1, int64Ptr(7), `{"thresholds": [{"min_qty": 10, "discount_pct": 20}]}`)

	// 100 * 0.80 * 0.90 = 72, applied in rule-id order regardless of slice order.
	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		Options:   []ServiceOption{sizeOption(`{"large": 100}`)},
		Answers: map[string]json.RawMessage{
			"size":     raw(`"large"`),
			"quantity": raw(`10`),
		},
		Rules: []Rule{global, scoped},
	})
	assert.Equal(t, "72", got.String())
}

func TestEvaluateSkipsInactiveAndForeignRules(t *testing.T) {
	inactive := volumeRule(1, int64Ptr(7), `{"thresholds": [{"min_qty": 1, "discount_pct": 50}]}`)
	inactive.Active = false
	foreign := volumeRule(2, int64Ptr(8), `{"thresholds": [{"min_qty": 1, "discount_pct": 50}]}`)
	otherType := Rule{ID: 3, ServiceID: int64Ptr(7), Type: RuleRushFee, Config: raw(`{"fee": 25}`), Active: true}

	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		Options:   []ServiceOption{sizeOption(`{"large": 100}`)},
		Answers: map[string]json.RawMessage{
			"size":     raw(`"large"`),
			"quantity": raw(`5`),
		},
		Rules: []Rule{inactive, foreign, otherType},
	})
	assert.Equal(t, "100", got.String())
}

func TestEvaluateMalformedRuleConfigContributesNothing(t *testing.T) {
	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		Options:   []ServiceOption{sizeOption(`{"large": 100}`)},
		Answers: map[string]json.RawMessage{
			"size":     raw(`"large"`),
			"quantity": raw(`100`),
		},
		Rules: []Rule{
			volumeRule(1, int64Ptr(7), `not json at all`),
			volumeRule(2, int64Ptr(7), `{"thresholds": "wrong shape"}`),
			volumeRule(3, int64Ptr(7), `{"thresholds": [{"min_qty": "ten", "discount_pct": 5}]}`),
		},
	})
	assert.Equal(t, "100", got.String())
}

func TestEvaluateContractBasePriceWins(t *testing.T) {
	pricing := `{"3": {"quantity_breaks": {"10": 80}, "quantity_pricing": {"10": 90}, "base_price": 100}}`

	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		TierID:    int64Ptr(3),
		Options:   []ServiceOption{sizeOption(`{"large": 40}`)},
		Answers: map[string]json.RawMessage{
			"size":     raw(`"large"`),
			"quantity": raw(`10`),
		},
		Rules:    []Rule{volumeRule(1, int64Ptr(7), `{"thresholds": [{"min_qty": 10, "discount_pct": 50}]}`)},
		Contract: &ContractContext{Pricing: raw(pricing)},
	})
	assert.Equal(t, "100", got.String())
}

func TestEvaluateContractQuantityPricingOverridesBreaks(t *testing.T) {
	pricing := `{"3": {"quantity_breaks": {"10": 80}, "quantity_pricing": {"10": 90}}}`

	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		TierID:    int64Ptr(3),
		Options:   []ServiceOption{sizeOption(`{"large": 40}`)},
		Answers: map[string]json.RawMessage{
			"size":     raw(`"large"`),
			"quantity": raw(`10`),
		},
		Contract: &ContractContext{Pricing: raw(pricing)},
	})
	assert.Equal(t, "90", got.String())
}

func TestEvaluateContractQuantityBreaksAlone(t *testing.T) {
	pricing := `{"3": {"quantity_breaks": {"10": 80}}}`

	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		TierID:    int64Ptr(3),
		Options:   []ServiceOption{sizeOption(`{"large": 40}`)},
		Answers: map[string]json.RawMessage{
			"size":     raw(`"large"`),
			"quantity": raw(`10`),
		},
		Contract: &ContractContext{Pricing: raw(pricing)},
	})
	assert.Equal(t, "80", got.String())
}

func TestEvaluateContractTierMismatchKeepsSubtotal(t *testing.T) {
	pricing := `{"5": {"base_price": 999}}`

	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		TierID:    int64Ptr(3),
		Options:   []ServiceOption{sizeOption(`{"large": 40}`)},
		Answers:   map[string]json.RawMessage{"size": raw(`"large"`)},
		Contract:  &ContractContext{Pricing: raw(pricing)},
	})
	assert.Equal(t, "40", got.String())
}

func TestEvaluateContractNoTierOnQuote(t *testing.T) {
	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		Options:   []ServiceOption{sizeOption(`{"large": 40}`)},
		Answers:   map[string]json.RawMessage{"size": raw(`"large"`)},
		Contract:  &ContractContext{Pricing: raw(`{"3": {"base_price": 999}}`)},
	})
	assert.Equal(t, "40", got.String())
}

func TestEvaluateFlatAccountDiscountFallback(t *testing.T) {
	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		Options:   []ServiceOption{sizeOption(`{"large": 200}`)},
		Answers:   map[string]json.RawMessage{"size": raw(`"large"`)},
		Contract:  &ContractContext{DiscountPct: 10},
	})
	assert.Equal(t, "180", got.String())
}

func TestEvaluateFlatDiscountZeroIsNoop(t *testing.T) {
	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		Options:   []ServiceOption{sizeOption(`{"large": 200}`)},
		Answers:   map[string]json.RawMessage{"size": raw(`"large"`)},
		Contract:  &ContractContext{},
	})
	assert.Equal(t, "200", got.String())
}

func TestEvaluateRoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		name   string
		impact string
		pct    string
		want   string
	}{
		// 8.333... and 8.335 exercise both sides of the half boundary.
		{"round down", `{"v": 12.4995}`, `{"thresholds": [{"min_qty": 1, "discount_pct": 33.33}]}`, "8.33"},
		{"round half up", `{"v": 16.67}`, `{"thresholds": [{"min_qty": 1, "discount_pct": 50}]}`, "8.34"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(EvaluateInput{
				ServiceID: 7,
				Options:   []ServiceOption{{ID: 1, ServiceID: 7, Key: "v", PricingImpact: raw(tc.impact), SortOrder: 1}},
				Answers: map[string]json.RawMessage{
					"v":        raw(`"v"`),
					"quantity": raw(`1`),
				},
				Rules: []Rule{volumeRule(1, int64Ptr(7), tc.pct)},
			})
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestEvaluateDoesNotClampNegative(t *testing.T) {
	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		Options:   []ServiceOption{sizeOption(`{"large": -5}`)},
		Answers:   map[string]json.RawMessage{"size": raw(`"large"`)},
	})
	assert.True(t, got.LessThan(decimal.Zero))
	assert.Equal(t, "-5", got.String())
}

func TestEvaluateFractionalQuantityKey(t *testing.T) {
	// Quantity answers index break maps by their literal decimal form.
	pricing := `{"3": {"quantity_pricing": {"2.5": 55}}}`

	got := Evaluate(EvaluateInput{
		ServiceID: 7,
		TierID:    int64Ptr(3),
		Answers:   map[string]json.RawMessage{"quantity": raw(`2.5`)},
		Contract:  &ContractContext{Pricing: raw(pricing)},
	})
	assert.Equal(t, "55", got.String())
}
