package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printhouse-ops/printhouse/internal/docnum"
	"github.com/printhouse-ops/printhouse/internal/platform/db"
)

// ErrNotFound indicates the invoice does not exist.
var ErrNotFound = errors.New("invoices: not found")

// Repository defines data access for invoices.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Counters() docnum.Store
	Create(ctx context.Context, invoice Invoice) (int64, error)
	Get(ctx context.Context, id int64) (*Invoice, error)
	GetByOrder(ctx context.Context, orderID int64) (*Invoice, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Invoice, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository builds a Repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	pool, ok := r.db.(*pgxpool.Pool)
	if !ok {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx})
	})
}

func (r *repository) Counters() docnum.Store {
	return docnum.NewPGStore(r.db)
}

func (r *repository) Create(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoices (invoice_number, order_id, customer_id, total_amount, status, issued_at, due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		inv.InvoiceNumber, inv.OrderID, inv.CustomerID, inv.TotalAmount, inv.Status,
		inv.IssuedAt, inv.DueAt, inv.CreatedAt, inv.UpdatedAt).Scan(&id)
	if err != nil {
		if db.UniqueConstraint(err) == "invoices_order_id_key" {
			return 0, fmt.Errorf("insert invoice for order %d: %w", inv.OrderID, ErrAlreadyInvoiced)
		}
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("insert invoice %s: %w", inv.InvoiceNumber, docnum.ErrConflict)
		}
		return 0, fmt.Errorf("insert invoice: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	return r.scanOne(ctx, `
		SELECT id, invoice_number, order_id, customer_id, total_amount, status, issued_at, due_at, created_at, updated_at
		FROM invoices WHERE id = $1`, id)
}

func (r *repository) GetByOrder(ctx context.Context, orderID int64) (*Invoice, error) {
	return r.scanOne(ctx, `
		SELECT id, invoice_number, order_id, customer_id, total_amount, status, issued_at, due_at, created_at, updated_at
		FROM invoices WHERE order_id = $1 ORDER BY id DESC LIMIT 1`, orderID)
}

func (r *repository) scanOne(ctx context.Context, query string, arg any) (*Invoice, error) {
	var inv Invoice
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.OrderID, &inv.CustomerID, &inv.TotalAmount,
		&inv.Status, &inv.IssuedAt, &inv.DueAt, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query invoice: %w", err)
	}
	return &inv, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID int64) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_number, order_id, customer_id, total_amount, status, issued_at, due_at, created_at, updated_at
		FROM invoices WHERE customer_id = $1 ORDER BY id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.InvoiceNumber, &inv.OrderID, &inv.CustomerID, &inv.TotalAmount,
			&inv.Status, &inv.IssuedAt, &inv.DueAt, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
