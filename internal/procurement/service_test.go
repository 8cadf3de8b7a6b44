package procurement

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printhouse-ops/printhouse/internal/docnum"
)

type memoryPORepo struct {
	pos      map[int64]*PurchaseOrder
	counters map[string]int64
	nextID   int64

	conflictsLeft int
}

func newMemoryPORepo() *memoryPORepo {
	return &memoryPORepo{pos: make(map[int64]*PurchaseOrder), counters: make(map[string]int64)}
}

func (r *memoryPORepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryPORepo) Counters() docnum.Store { return r }

func (r *memoryPORepo) Increment(ctx context.Context, series docnum.Series, year int) (int64, error) {
	key := fmt.Sprintf("%s/%d", series, year)
	r.counters[key]++
	return r.counters[key], nil
}

func (r *memoryPORepo) Create(ctx context.Context, po PurchaseOrder) (int64, error) {
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return 0, fmt.Errorf("insert purchase order %s: %w", po.PONumber, docnum.ErrConflict)
	}
	r.nextID++
	po.ID = r.nextID
	r.pos[po.ID] = &po
	return po.ID, nil
}

func (r *memoryPORepo) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	po, ok := r.pos[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *po
	return &copied, nil
}

func (r *memoryPORepo) List(ctx context.Context) ([]PurchaseOrder, error) {
	var out []PurchaseOrder
	for id := int64(1); id <= r.nextID; id++ {
		if po, ok := r.pos[id]; ok {
			out = append(out, *po)
		}
	}
	return out, nil
}

func (r *memoryPORepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	po, ok := r.pos[id]
	if !ok {
		return ErrNotFound
	}
	po.Status = status
	return nil
}

func newTestPOService(repo Repository) *Service {
	svc := NewService(repo, nil, 3)
	svc.now = func() time.Time { return time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateUsesNarrowPadding(t *testing.T) {
	repo := newMemoryPORepo()
	svc := newTestPOService(repo)

	po, err := svc.Create(context.Background(), CreateInput{SupplierID: 4, TotalCost: 320.00})
	require.NoError(t, err)
	assert.Equal(t, "PO-2025-001", po.PONumber)
	assert.Equal(t, StatusDraft, po.Status)

	second, err := svc.Create(context.Background(), CreateInput{SupplierID: 4, TotalCost: 58.20})
	require.NoError(t, err)
	assert.Equal(t, "PO-2025-002", second.PONumber)
}

func TestCreateRetriesOnConflict(t *testing.T) {
	repo := newMemoryPORepo()
	repo.conflictsLeft = 1
	svc := newTestPOService(repo)

	po, err := svc.Create(context.Background(), CreateInput{SupplierID: 4, TotalCost: 10})
	require.NoError(t, err)
	assert.Equal(t, "PO-2025-002", po.PONumber)
}

func TestCreateValidatesInput(t *testing.T) {
	svc := newTestPOService(newMemoryPORepo())

	_, err := svc.Create(context.Background(), CreateInput{TotalCost: 10})
	require.Error(t, err)
	_, err = svc.Create(context.Background(), CreateInput{SupplierID: 1, TotalCost: -1})
	require.Error(t, err)
}

func TestUpdateStatus(t *testing.T) {
	repo := newMemoryPORepo()
	svc := newTestPOService(repo)

	po, err := svc.Create(context.Background(), CreateInput{SupplierID: 4, TotalCost: 10})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(context.Background(), po.ID, StatusOrdered))
	got, err := svc.Get(context.Background(), po.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOrdered, got.Status)

	err = svc.UpdateStatus(context.Background(), po.ID, Status("SHIPPED"))
	require.ErrorIs(t, err, ErrInvalidStatus)
	err = svc.UpdateStatus(context.Background(), 99, StatusOrdered)
	require.ErrorIs(t, err, ErrNotFound)
}
