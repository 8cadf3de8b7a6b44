package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printhouse-ops/printhouse/internal/platform/db"
)

// ErrNotFound indicates the quote does not exist.
var ErrNotFound = errors.New("quotes: not found")

// Repository persists quotes and their answers.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Quote, error)
	GetForUpdate(ctx context.Context, id int64) (*Quote, error)
	ListAnswers(ctx context.Context, quoteID int64) (map[string]json.RawMessage, error)
	UpdateEstimate(ctx context.Context, id int64, subtotal float64, at time.Time) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed quote repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) get(ctx context.Context, id int64, lock string) (*Quote, error) {
	var q Quote
	err := r.db.QueryRow(ctx, `SELECT id, customer_id, service_id, tier_id, estimate_subtotal, updated_at
FROM quotes WHERE id = $1`+lock, id).Scan(&q.ID, &q.CustomerID, &q.ServiceID, &q.TierID, &q.EstimateSubtotal, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate locks the quote row for the rest of the transaction so the
// estimate write cannot race a concurrent recompute.
func (r *repository) GetForUpdate(ctx context.Context, id int64) (*Quote, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *repository) ListAnswers(ctx context.Context, quoteID int64) (map[string]json.RawMessage, error) {
	rows, err := r.db.Query(ctx, `SELECT option_key, value FROM quote_answers WHERE quote_id = $1`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	answers := make(map[string]json.RawMessage)
	for rows.Next() {
		var key string
		var value json.RawMessage
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		answers[key] = value
	}
	return answers, rows.Err()
}

func (r *repository) UpdateEstimate(ctx context.Context, id int64, subtotal float64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE quotes SET estimate_subtotal = $1, updated_at = $2 WHERE id = $3`, subtotal, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
