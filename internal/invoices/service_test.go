package invoices

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printhouse-ops/printhouse/internal/docnum"
	"github.com/printhouse-ops/printhouse/internal/orders"
)

type memoryInvoiceRepo struct {
	invoices map[int64]*Invoice
	counters map[string]int64
	nextID   int64

	conflictsLeft int
	dupesAtInsert int
	createCalls   int
	createdInTx   bool
	checkedInTx   bool
	inTx          bool
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{
		invoices: make(map[int64]*Invoice),
		counters: make(map[string]int64),
	}
}

func (r *memoryInvoiceRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	r.inTx = true
	defer func() { r.inTx = false }()
	return fn(ctx, r)
}

func (r *memoryInvoiceRepo) Counters() docnum.Store { return r }

func (r *memoryInvoiceRepo) Increment(ctx context.Context, series docnum.Series, year int) (int64, error) {
	key := fmt.Sprintf("%s/%d", series, year)
	r.counters[key]++
	return r.counters[key], nil
}

func (r *memoryInvoiceRepo) Create(ctx context.Context, inv Invoice) (int64, error) {
	r.createCalls++
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return 0, fmt.Errorf("insert invoice %s: %w", inv.InvoiceNumber, docnum.ErrConflict)
	}
	if r.dupesAtInsert > 0 {
		r.dupesAtInsert--
		return 0, fmt.Errorf("insert invoice for order %d: %w", inv.OrderID, ErrAlreadyInvoiced)
	}
	r.createdInTx = r.inTx
	r.nextID++
	inv.ID = r.nextID
	r.invoices[inv.ID] = &inv
	return inv.ID, nil
}

func (r *memoryInvoiceRepo) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *inv
	return &copied, nil
}

func (r *memoryInvoiceRepo) GetByOrder(ctx context.Context, orderID int64) (*Invoice, error) {
	r.checkedInTx = r.inTx
	for _, inv := range r.invoices {
		if inv.OrderID == orderID {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryInvoiceRepo) ListByCustomer(ctx context.Context, customerID int64) ([]Invoice, error) {
	var out []Invoice
	for id := int64(1); id <= r.nextID; id++ {
		if inv, ok := r.invoices[id]; ok && inv.CustomerID == customerID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

type stubOrders struct {
	orders map[int64]*orders.Order
}

func (s *stubOrders) Get(ctx context.Context, id int64) (*orders.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return o, nil
}

func newTestInvoiceService(repo Repository, orderPort OrderPort) *Service {
	svc := NewService(repo, orderPort, nil, 3)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateForOrderSnapshotsTotal(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	orderPort := &stubOrders{orders: map[int64]*orders.Order{
		7: {ID: 7, OrderNumber: "ORD-2025-0007", CustomerID: 3, TotalAmount: 412.50},
	}}
	svc := newTestInvoiceService(repo, orderPort)

	inv, err := svc.CreateForOrder(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-0001", inv.InvoiceNumber)
	assert.Equal(t, 412.50, inv.TotalAmount)
	assert.Equal(t, int64(3), inv.CustomerID)
	assert.Equal(t, StatusIssued, inv.Status)
	assert.Equal(t, inv.IssuedAt.Add(DefaultPaymentTerm), inv.DueAt)
	assert.True(t, repo.createdInTx, "number allocation and insert share a transaction")
}

func TestCreateForOrderSequential(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	orderPort := &stubOrders{orders: map[int64]*orders.Order{
		1: {ID: 1, CustomerID: 1, TotalAmount: 10},
		2: {ID: 2, CustomerID: 1, TotalAmount: 20},
	}}
	svc := newTestInvoiceService(repo, orderPort)

	first, err := svc.CreateForOrder(context.Background(), 1)
	require.NoError(t, err)
	second, err := svc.CreateForOrder(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, "INV-2025-0001", first.InvoiceNumber)
	assert.Equal(t, "INV-2025-0002", second.InvoiceNumber)
}

func TestCreateForOrderUnknownOrder(t *testing.T) {
	svc := newTestInvoiceService(newMemoryInvoiceRepo(), &stubOrders{orders: map[int64]*orders.Order{}})
	_, err := svc.CreateForOrder(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateForOrderRejectsDuplicate(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	orderPort := &stubOrders{orders: map[int64]*orders.Order{
		1: {ID: 1, CustomerID: 1, TotalAmount: 10},
	}}
	svc := newTestInvoiceService(repo, orderPort)

	_, err := svc.CreateForOrder(context.Background(), 1)
	require.NoError(t, err)
	_, err = svc.CreateForOrder(context.Background(), 1)
	require.ErrorIs(t, err, ErrAlreadyInvoiced)
	assert.True(t, repo.checkedInTx, "duplicate check shares the insert transaction")
}

func TestCreateForOrderDuplicateRaceAtInsert(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	repo.dupesAtInsert = 1
	orderPort := &stubOrders{orders: map[int64]*orders.Order{
		1: {ID: 1, CustomerID: 1, TotalAmount: 10},
	}}
	svc := newTestInvoiceService(repo, orderPort)

	// A racing issuer commits between our duplicate check and the insert; the
	// unique index on order_id reports it at insert time.
	_, err := svc.CreateForOrder(context.Background(), 1)
	require.ErrorIs(t, err, ErrAlreadyInvoiced)
	assert.Equal(t, 1, repo.createCalls, "a duplicate order is not worth retrying")
}

func TestCreateForOrderRetriesOnConflict(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	repo.conflictsLeft = 1
	orderPort := &stubOrders{orders: map[int64]*orders.Order{
		1: {ID: 1, CustomerID: 1, TotalAmount: 10},
	}}
	svc := newTestInvoiceService(repo, orderPort)

	inv, err := svc.CreateForOrder(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-0002", inv.InvoiceNumber)
}

func TestListByCustomer(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	orderPort := &stubOrders{orders: map[int64]*orders.Order{
		1: {ID: 1, CustomerID: 5, TotalAmount: 10},
		2: {ID: 2, CustomerID: 5, TotalAmount: 20},
		3: {ID: 3, CustomerID: 6, TotalAmount: 30},
	}}
	svc := newTestInvoiceService(repo, orderPort)
	for id := int64(1); id <= 3; id++ {
		_, err := svc.CreateForOrder(context.Background(), id)
		require.NoError(t, err)
	}

	list, err := svc.ListByCustomer(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "INV-2025-0001", list[0].InvoiceNumber)
	assert.Equal(t, "INV-2025-0002", list[1].InvoiceNumber)
}
