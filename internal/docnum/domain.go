// Package docnum allocates human-readable, year-scoped sequential document
// numbers (ORD-2025-0001, INV-2025-0001, PO-2025-001). Allocation goes
// through a per-(series, year) counter row whose update locks out concurrent
// allocators for the rest of the transaction, so the scan-then-increment race
// of naive implementations cannot occur.
package docnum

import (
	"fmt"
	"strconv"
	"strings"
)

// Series identifies an independently numbered document series.
type Series string

const (
	SeriesOrder         Series = "order"
	SeriesInvoice       Series = "invoice"
	SeriesPurchaseOrder Series = "purchase_order"
)

// Prefix returns the human-readable series prefix.
func (s Series) Prefix() string {
	switch s {
	case SeriesOrder:
		return "ORD"
	case SeriesInvoice:
		return "INV"
	case SeriesPurchaseOrder:
		return "PO"
	}
	return ""
}

// Width returns the zero-padding width of the sequence suffix. Purchase
// orders historically use three digits, everything else four.
func (s Series) Width() int {
	if s == SeriesPurchaseOrder {
		return 3
	}
	return 4
}

// Valid reports whether s is a known series.
func (s Series) Valid() bool {
	return s.Prefix() != ""
}

// Format renders a document number, e.g. Format(2025, 8) -> "ORD-2025-0008".
// Sequences beyond the padding width keep their full value.
func (s Series) Format(year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%0*d", s.Prefix(), year, s.Width(), seq)
}

// ParseSuffix extracts the numeric suffix from a formatted number belonging
// to (s, year). It returns false for numbers from other series or years.
func (s Series) ParseSuffix(year int, number string) (int64, bool) {
	prefix := fmt.Sprintf("%s-%d-", s.Prefix(), year)
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	seq, err := strconv.ParseInt(number[len(prefix):], 10, 64)
	if err != nil || seq < 1 {
		return 0, false
	}
	return seq, true
}
