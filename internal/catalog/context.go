package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/printhouse-ops/printhouse/internal/pricing"
)

// ContractLoader resolves the B2B pricing context for a customer. Lookups are
// best effort: every failure, expected or not, resolves to "no override" so a
// broken contract row can never block an estimate.
type ContractLoader struct {
	repo   Repository
	logger *slog.Logger
}

// NewContractLoader constructs a ContractLoader.
func NewContractLoader(repo Repository, logger *slog.Logger) *ContractLoader {
	return &ContractLoader{repo: repo, logger: logger}
}

// Load returns the contract context for (customer, service), or nil when the
// customer has no linked account or any lookup fails.
func (l *ContractLoader) Load(ctx context.Context, customerID, serviceID int64) *pricing.ContractContext {
	acct, err := l.repo.GetAccountForCustomer(ctx, customerID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && l.logger != nil {
			l.logger.Warn("b2b account lookup failed",
				slog.Int64("customer_id", customerID), slog.Any("error", err))
		}
		return nil
	}

	contract, err := l.repo.GetContractPricing(ctx, acct.ID, serviceID)
	if errors.Is(err, ErrNotFound) {
		// No contract for this service; the flat account discount still applies.
		return &pricing.ContractContext{DiscountPct: acct.DiscountPct}
	}
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("contract pricing lookup failed",
				slog.Int64("account_id", acct.ID), slog.Any("error", err))
		}
		return nil
	}

	return &pricing.ContractContext{DiscountPct: acct.DiscountPct, Pricing: contract.PricingJSON}
}
