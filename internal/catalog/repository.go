package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printhouse-ops/printhouse/internal/pricing"
)

// ErrNotFound indicates a catalog row is absent.
var ErrNotFound = errors.New("catalog: not found")

// Repository provides read-only catalog queries.
type Repository interface {
	ListServiceOptions(ctx context.Context, serviceID int64) ([]pricing.ServiceOption, error)
	ListActiveRules(ctx context.Context, serviceID int64) ([]pricing.Rule, error)
	GetAccountForCustomer(ctx context.Context, customerID int64) (*B2BAccount, error)
	GetContractPricing(ctx context.Context, accountID, serviceID int64) (*ContractPricing, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed catalog repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListServiceOptions(ctx context.Context, serviceID int64) ([]pricing.ServiceOption, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, service_id, key, pricing_impact, sort_order
FROM service_options WHERE service_id = $1 ORDER BY sort_order, id`, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var options []pricing.ServiceOption
	for rows.Next() {
		var opt pricing.ServiceOption
		if err := rows.Scan(&opt.ID, &opt.ServiceID, &opt.Key, &opt.PricingImpact, &opt.SortOrder); err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

func (r *repository) ListActiveRules(ctx context.Context, serviceID int64) ([]pricing.Rule, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, service_id, rule_type, rule_config, is_active
FROM pricing_rules WHERE is_active AND (service_id = $1 OR service_id IS NULL) ORDER BY id`, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []pricing.Rule
	for rows.Next() {
		var rule pricing.Rule
		if err := rows.Scan(&rule.ID, &rule.ServiceID, &rule.Type, &rule.Config, &rule.Active); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *repository) GetAccountForCustomer(ctx context.Context, customerID int64) (*B2BAccount, error) {
	var acct B2BAccount
	err := r.pool.QueryRow(ctx, `SELECT a.id, a.name, a.discount_pct
FROM b2b_accounts a
JOIN customer_profiles p ON p.b2b_account_id = a.id
WHERE p.user_id = $1`, customerID).Scan(&acct.ID, &acct.Name, &acct.DiscountPct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acct, nil
}

func (r *repository) GetContractPricing(ctx context.Context, accountID, serviceID int64) (*ContractPricing, error) {
	cp := ContractPricing{AccountID: accountID, ServiceID: serviceID}
	err := r.pool.QueryRow(ctx, `SELECT pricing_json FROM contract_pricing
WHERE account_id = $1 AND service_id = $2`, accountID, serviceID).Scan(&cp.PricingJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cp, nil
}
