package procurement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printhouse-ops/printhouse/internal/docnum"
	"github.com/printhouse-ops/printhouse/internal/platform/db"
)

// ErrNotFound indicates the purchase order does not exist.
var ErrNotFound = errors.New("procurement: not found")

// Repository defines data access for purchase orders.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Counters() docnum.Store
	Create(ctx context.Context, po PurchaseOrder) (int64, error)
	Get(ctx context.Context, id int64) (*PurchaseOrder, error)
	List(ctx context.Context) ([]PurchaseOrder, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
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

const poColumns = "id, po_number, supplier_id, status, total_cost, notes, created_at, updated_at"

func (r *repository) Create(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO purchase_orders (po_number, supplier_id, status, total_cost, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		po.PONumber, po.SupplierID, po.Status, po.TotalCost, po.Notes, po.CreatedAt, po.UpdatedAt).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("insert purchase order %s: %w", po.PONumber, docnum.ErrConflict)
		}
		return 0, fmt.Errorf("insert purchase order: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	var po PurchaseOrder
	err := r.db.QueryRow(ctx, "SELECT "+poColumns+" FROM purchase_orders WHERE id = $1", id).Scan(
		&po.ID, &po.PONumber, &po.SupplierID, &po.Status, &po.TotalCost, &po.Notes, &po.CreatedAt, &po.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query purchase order: %w", err)
	}
	return &po, nil
}

func (r *repository) List(ctx context.Context) ([]PurchaseOrder, error) {
	rows, err := r.db.Query(ctx, "SELECT "+poColumns+" FROM purchase_orders ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	var out []PurchaseOrder
	for rows.Next() {
		var po PurchaseOrder
		if err := rows.Scan(&po.ID, &po.PONumber, &po.SupplierID, &po.Status, &po.TotalCost,
			&po.Notes, &po.CreatedAt, &po.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		out = append(out, po)
	}
	return out, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE purchase_orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update purchase order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
