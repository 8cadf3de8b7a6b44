package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printhouse-ops/printhouse/internal/docnum"
	"github.com/printhouse-ops/printhouse/internal/platform/db"
)

// ErrNotFound indicates an order or payment is absent.
var ErrNotFound = errors.New("orders: not found")

// Repository persists orders and payments.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Counters() docnum.Store
	Get(ctx context.Context, id int64) (*Order, error)
	GetForUpdate(ctx context.Context, id int64) (*Order, error)
	Create(ctx context.Context, order Order) (int64, error)
	InsertPayment(ctx context.Context, payment Payment) (int64, error)
	GetPayment(ctx context.Context, orderID, paymentID int64) (*Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID int64, status PaymentStatus, at time.Time) error
	ListPayments(ctx context.Context, orderID int64) ([]Payment, error)
	PaymentTotals(ctx context.Context, orderID int64) (completed, refunded float64, err error)
	UpdateBalance(ctx context.Context, orderID int64, balance float64, at time.Time) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed order repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

// Counters exposes the document counter store bound to the repository's
// current transaction, so number allocation and the order insert commit or
// roll back together.
func (r *repository) Counters() docnum.Store {
	return docnum.NewPGStore(r.db)
}

func (r *repository) get(ctx context.Context, id int64, lock string) (*Order, error) {
	var o Order
	err := r.db.QueryRow(ctx, `SELECT id, order_number, customer_id, quote_id, total_amount, balance_due, created_at, updated_at
FROM orders WHERE id = $1`+lock, id).Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.QuoteID, &o.TotalAmount, &o.BalanceDue, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Order, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate locks the order row so reconciliations apply in payment-commit
// order and a stale aggregate can never overwrite a newer balance.
func (r *repository) GetForUpdate(ctx context.Context, id int64) (*Order, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *repository) Create(ctx context.Context, order Order) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO orders (order_number, customer_id, quote_id, total_amount, balance_due, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		order.OrderNumber, order.CustomerID, order.QuoteID, order.TotalAmount, order.BalanceDue, order.CreatedAt, order.UpdatedAt).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("insert order %s: %w", order.OrderNumber, docnum.ErrConflict)
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) InsertPayment(ctx context.Context, payment Payment) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO payments (order_id, reference, amount, status, method, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		payment.OrderID, payment.Reference, payment.Amount, payment.Status, payment.Method, payment.CreatedAt, payment.UpdatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) GetPayment(ctx context.Context, orderID, paymentID int64) (*Payment, error) {
	var p Payment
	err := r.db.QueryRow(ctx, `SELECT id, order_id, reference, amount, status, method, created_at, updated_at
FROM payments WHERE id = $1 AND order_id = $2`, paymentID, orderID).Scan(
		&p.ID, &p.OrderID, &p.Reference, &p.Amount, &p.Status, &p.Method, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, paymentID int64, status PaymentStatus, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE payments SET status = $1, updated_at = $2 WHERE id = $3`, status, at, paymentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListPayments(ctx context.Context, orderID int64) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, order_id, reference, amount, status, method, created_at, updated_at
FROM payments WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Reference, &p.Amount, &p.Status, &p.Method, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// PaymentTotals aggregates the full payment history; reconciliation always
// starts from this fresh read, never from cached sums.
func (r *repository) PaymentTotals(ctx context.Context, orderID int64) (float64, float64, error) {
	var completed, refunded float64
	err := r.db.QueryRow(ctx, `SELECT
COALESCE(SUM(amount) FILTER (WHERE status = 'COMPLETED'), 0),
COALESCE(SUM(amount) FILTER (WHERE status = 'REFUNDED'), 0)
FROM payments WHERE order_id = $1`, orderID).Scan(&completed, &refunded)
	if err != nil {
		return 0, 0, err
	}
	return completed, refunded, nil
}

func (r *repository) UpdateBalance(ctx context.Context, orderID int64, balance float64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE orders SET balance_due = $1, updated_at = $2 WHERE id = $3`, balance, at, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
