package pricing

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// decodeScalar parses a JSON document keeping numbers as json.Number.
func decodeScalar(raw json.RawMessage) (interface{}, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// stringKey renders a JSON scalar the way it indexes a pricing_impact map:
// strings verbatim, numbers and booleans in their JSON form. Objects, arrays,
// and null index nothing.
func stringKey(raw json.RawMessage) (string, bool) {
	v, ok := decodeScalar(raw)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// asDecimal parses a JSON value as a numeric amount. JSON numbers and numeric
// strings are accepted; anything else is rejected.
func asDecimal(raw json.RawMessage) (decimal.Decimal, bool) {
	v, ok := decodeScalar(raw)
	if !ok {
		return decimal.Decimal{}, false
	}
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	case string:
		d, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	}
	return decimal.Decimal{}, false
}

// decimalMap converts a raw string-to-value object, dropping entries whose
// values are not numeric.
func decimalMap(raw json.RawMessage) map[string]decimal.Decimal {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(entries))
	for key, val := range entries {
		if d, ok := asDecimal(val); ok {
			out[key] = d
		}
	}
	return out
}

// threshold is one volume discount step.
type threshold struct {
	MinQty      decimal.Decimal
	DiscountPct decimal.Decimal
}

// thresholdsOf extracts rule_config.thresholds, dropping malformed entries.
func thresholdsOf(config json.RawMessage) []threshold {
	var doc struct {
		Thresholds []struct {
			MinQty      json.RawMessage `json:"min_qty"`
			DiscountPct json.RawMessage `json:"discount_pct"`
		} `json:"thresholds"`
	}
	if err := json.Unmarshal(config, &doc); err != nil {
		return nil
	}
	steps := make([]threshold, 0, len(doc.Thresholds))
	for _, entry := range doc.Thresholds {
		minQty, ok := asDecimal(entry.MinQty)
		if !ok {
			continue
		}
		pct, ok := asDecimal(entry.DiscountPct)
		if !ok {
			continue
		}
		steps = append(steps, threshold{MinQty: minQty, DiscountPct: pct})
	}
	return steps
}

// tierConfig is the per-tier shape inside a contract pricing_json document.
type tierConfig struct {
	BasePrice       *decimal.Decimal
	QuantityBreaks  map[string]decimal.Decimal
	QuantityPricing map[string]decimal.Decimal
}

// tierFor looks up the tier entry in a contract pricing_json document.
func tierFor(pricing json.RawMessage, tierID int64) *tierConfig {
	var tiers map[string]json.RawMessage
	if err := json.Unmarshal(pricing, &tiers); err != nil {
		return nil
	}
	raw, ok := tiers[strconv.FormatInt(tierID, 10)]
	if !ok {
		return nil
	}
	var doc struct {
		BasePrice       json.RawMessage `json:"base_price"`
		QuantityBreaks  json.RawMessage `json:"quantity_breaks"`
		QuantityPricing json.RawMessage `json:"quantity_pricing"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	cfg := &tierConfig{
		QuantityBreaks:  decimalMap(doc.QuantityBreaks),
		QuantityPricing: decimalMap(doc.QuantityPricing),
	}
	if base, ok := asDecimal(doc.BasePrice); ok {
		cfg.BasePrice = &base
	}
	return cfg
}
