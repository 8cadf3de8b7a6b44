package docnum

import (
	"context"
	"fmt"

	"github.com/printhouse-ops/printhouse/internal/platform/db"
)

// legacyScan locates pre-counter documents so a fresh counter can pick up
// where imported data left off.
var legacyScan = map[Series]struct {
	table  string
	column string
}{
	SeriesOrder:         {table: "orders", column: "order_number"},
	SeriesInvoice:       {table: "invoices", column: "invoice_number"},
	SeriesPurchaseOrder: {table: "purchase_orders", column: "po_number"},
}

// PGStore advances counters in the document_counters table. Construct it over
// the transaction that inserts the numbered entity; the ON CONFLICT update
// takes a row lock that serializes concurrent allocators until commit.
type PGStore struct {
	db db.DBTX
}

// NewPGStore wraps a pool or transaction.
func NewPGStore(dbtx db.DBTX) *PGStore {
	return &PGStore{db: dbtx}
}

// Increment advances the (series, year) counter and returns the new value.
// The first increment of a fresh counter reconciles against documents that
// predate the counter row, if any.
func (s *PGStore) Increment(ctx context.Context, series Series, year int) (int64, error) {
	var last int64
	err := s.db.QueryRow(ctx, `INSERT INTO document_counters (series, year, last_value)
VALUES ($1, $2, 1)
ON CONFLICT (series, year)
DO UPDATE SET last_value = document_counters.last_value + 1
RETURNING last_value`, series, year).Scan(&last)
	if err != nil {
		return 0, err
	}
	if last != 1 {
		return last, nil
	}

	// Fresh counter: we hold its row lock, so seeding from legacy rows is
	// race free.
	seed, err := s.maxLegacy(ctx, series, year)
	if err != nil {
		return 0, err
	}
	if seed == 0 {
		return last, nil
	}
	next := seed + 1
	if _, err := s.db.Exec(ctx, `UPDATE document_counters SET last_value = $1
WHERE series = $2 AND year = $3`, next, series, year); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *PGStore) maxLegacy(ctx context.Context, series Series, year int) (int64, error) {
	scan, ok := legacyScan[series]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSeries, series)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s LIKE $1`, scan.column, scan.table, scan.column)
	rows, err := s.db.Query(ctx, query, fmt.Sprintf("%s-%d-%%", series.Prefix(), year))
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var max int64
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return 0, err
		}
		if seq, ok := series.ParseSuffix(year, number); ok && seq > max {
			max = seq
		}
	}
	return max, rows.Err()
}
