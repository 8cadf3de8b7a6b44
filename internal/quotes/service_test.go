package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printhouse-ops/printhouse/internal/pricing"
)

type memoryQuoteRepo struct {
	quotes  map[int64]*Quote
	answers map[int64]map[string]json.RawMessage

	updateCalls int
	inTx        bool
	updatedInTx bool
}

func newMemoryQuoteRepo() *memoryQuoteRepo {
	return &memoryQuoteRepo{
		quotes:  make(map[int64]*Quote),
		answers: make(map[int64]map[string]json.RawMessage),
	}
}

func (r *memoryQuoteRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	r.inTx = true
	defer func() { r.inTx = false }()
	return fn(ctx, r)
}

func (r *memoryQuoteRepo) Get(ctx context.Context, id int64) (*Quote, error) {
	q, ok := r.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (r *memoryQuoteRepo) GetForUpdate(ctx context.Context, id int64) (*Quote, error) {
	return r.Get(ctx, id)
}

func (r *memoryQuoteRepo) ListAnswers(ctx context.Context, quoteID int64) (map[string]json.RawMessage, error) {
	return r.answers[quoteID], nil
}

func (r *memoryQuoteRepo) UpdateEstimate(ctx context.Context, id int64, subtotal float64, at time.Time) error {
	q, ok := r.quotes[id]
	if !ok {
		return ErrNotFound
	}
	r.updateCalls++
	r.updatedInTx = r.inTx
	q.EstimateSubtotal = subtotal
	q.UpdatedAt = at
	return nil
}

type stubCatalog struct {
	options []pricing.ServiceOption
	rules   []pricing.Rule
	err     error
}

func (s *stubCatalog) ListServiceOptions(ctx context.Context, serviceID int64) ([]pricing.ServiceOption, error) {
	return s.options, s.err
}

func (s *stubCatalog) ListActiveRules(ctx context.Context, serviceID int64) ([]pricing.Rule, error) {
	return s.rules, s.err
}

type stubContracts struct {
	ctx *pricing.ContractContext
}

func (s *stubContracts) Load(ctx context.Context, customerID, serviceID int64) *pricing.ContractContext {
	return s.ctx
}

func newTestService(repo Repository, catalog CatalogPort, contracts ContractPort) *Service {
	svc := NewService(repo, catalog, contracts, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestRecomputeNotFound(t *testing.T) {
	svc := newTestService(newMemoryQuoteRepo(), &stubCatalog{}, &stubContracts{})

	_, err := svc.Recompute(context.Background(), 99, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecomputeForbidden(t *testing.T) {
	repo := newMemoryQuoteRepo()
	repo.quotes[1] = &Quote{ID: 1, CustomerID: 10, ServiceID: 7}
	svc := newTestService(repo, &stubCatalog{}, &stubContracts{})

	_, err := svc.Recompute(context.Background(), 1, 11)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Zero(t, repo.updateCalls)
}

func TestRecomputePersistsSubtotal(t *testing.T) {
	repo := newMemoryQuoteRepo()
	repo.quotes[1] = &Quote{ID: 1, CustomerID: 10, ServiceID: 7}
	repo.answers[1] = map[string]json.RawMessage{
		"size":     json.RawMessage(`"large"`),
		"quantity": json.RawMessage(`60`),
	}
	catalog := &stubCatalog{
		options: []pricing.ServiceOption{
			{ID: 1, ServiceID: 7, Key: "size", PricingImpact: json.RawMessage(`{"large": 100}`), SortOrder: 1},
		},
		rules: []pricing.Rule{
			{ID: 1, Type: pricing.RuleVolumeDiscount, Active: true,
				Config: json.RawMessage(`{"thresholds": [{"min_qty": 10, "discount_pct": 5}, {"min_qty": 50, "discount_pct": 15}]}`)},
		},
	}
	svc := newTestService(repo, catalog, &stubContracts{})

	subtotal, err := svc.Recompute(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "85.00", subtotal.StringFixed(2))
	assert.Equal(t, 85.0, repo.quotes[1].EstimateSubtotal)
	assert.True(t, repo.updatedInTx, "estimate write must share the quote read transaction")
	assert.Equal(t, 2025, repo.quotes[1].UpdatedAt.Year())
}

func TestRecomputeEmptyAnswersYieldsZero(t *testing.T) {
	repo := newMemoryQuoteRepo()
	repo.quotes[1] = &Quote{ID: 1, CustomerID: 10, ServiceID: 7}
	catalog := &stubCatalog{options: []pricing.ServiceOption{
		{ID: 1, ServiceID: 7, Key: "size", PricingImpact: json.RawMessage(`{"large": 100}`), SortOrder: 1},
	}}
	svc := newTestService(repo, catalog, &stubContracts{})

	subtotal, err := svc.Recompute(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "0.00", subtotal.StringFixed(2))
	assert.Equal(t, 0.0, repo.quotes[1].EstimateSubtotal)
}

func TestRecomputeAppliesContractOverride(t *testing.T) {
	tierID := int64(3)
	repo := newMemoryQuoteRepo()
	repo.quotes[1] = &Quote{ID: 1, CustomerID: 10, ServiceID: 7, TierID: &tierID}
	repo.answers[1] = map[string]json.RawMessage{"quantity": json.RawMessage(`10`)}
	contracts := &stubContracts{ctx: &pricing.ContractContext{
		Pricing: json.RawMessage(`{"3": {"base_price": 250}}`),
	}}
	svc := newTestService(repo, &stubCatalog{}, contracts)

	subtotal, err := svc.Recompute(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "250.00", subtotal.StringFixed(2))
}

func TestRecomputeCatalogFailureAborts(t *testing.T) {
	repo := newMemoryQuoteRepo()
	repo.quotes[1] = &Quote{ID: 1, CustomerID: 10, ServiceID: 7}
	catalog := &stubCatalog{err: errors.New("catalog down")}
	svc := newTestService(repo, catalog, &stubContracts{})

	_, err := svc.Recompute(context.Background(), 1, 10)
	require.Error(t, err)
	assert.Zero(t, repo.updateCalls)
}
