package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/printhouse-ops/printhouse/internal/pricing"
)

// ErrForbidden indicates the requesting customer does not own the quote.
var ErrForbidden = errors.New("quotes: forbidden")

// CatalogPort is the slice of the catalog this service reads.
type CatalogPort interface {
	ListServiceOptions(ctx context.Context, serviceID int64) ([]pricing.ServiceOption, error)
	ListActiveRules(ctx context.Context, serviceID int64) ([]pricing.Rule, error)
}

// ContractPort resolves B2B contract context, best effort.
type ContractPort interface {
	Load(ctx context.Context, customerID, serviceID int64) *pricing.ContractContext
}

// Service recomputes quote estimates.
type Service struct {
	repo      Repository
	catalog   CatalogPort
	contracts ContractPort
	logger    *slog.Logger
	now       func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, catalog CatalogPort, contracts ContractPort, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalog,
		contracts: contracts,
		logger:    logger,
		now:       time.Now,
	}
}

// Recompute reprices the quote from its current answers and persists the
// subtotal. The quote read and the estimate write share one transaction so a
// concurrent answer edit cannot produce a lost update. Returns ErrNotFound
// when the quote is absent and ErrForbidden when customerID does not own it.
func (s *Service) Recompute(ctx context.Context, quoteID, customerID int64) (decimal.Decimal, error) {
	var subtotal decimal.Decimal
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		quote, err := repo.GetForUpdate(ctx, quoteID)
		if err != nil {
			return fmt.Errorf("get quote: %w", err)
		}
		if quote.CustomerID != customerID {
			return ErrForbidden
		}

		var (
			options []pricing.ServiceOption
			rules   []pricing.Rule
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			options, err = s.catalog.ListServiceOptions(gctx, quote.ServiceID)
			if err != nil {
				return fmt.Errorf("list service options: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			var err error
			rules, err = s.catalog.ListActiveRules(gctx, quote.ServiceID)
			if err != nil {
				return fmt.Errorf("list pricing rules: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}

		answers, err := repo.ListAnswers(ctx, quoteID)
		if err != nil {
			return fmt.Errorf("list answers: %w", err)
		}

		contract := s.contracts.Load(ctx, quote.CustomerID, quote.ServiceID)

		subtotal = pricing.Evaluate(pricing.EvaluateInput{
			ServiceID: quote.ServiceID,
			TierID:    quote.TierID,
			Options:   options,
			Answers:   answers,
			Rules:     rules,
			Contract:  contract,
		})

		if err := repo.UpdateEstimate(ctx, quoteID, subtotal.InexactFloat64(), s.now()); err != nil {
			return fmt.Errorf("persist estimate: %w", err)
		}
		return nil
	})
	if err != nil {
		return decimal.Decimal{}, err
	}

	if s.logger != nil {
		s.logger.Info("quote estimate recomputed",
			slog.Int64("quote_id", quoteID),
			slog.String("subtotal", subtotal.StringFixed(2)))
	}
	return subtotal, nil
}

// Get returns the quote for read-only callers.
func (s *Service) Get(ctx context.Context, id int64) (*Quote, error) {
	return s.repo.Get(ctx, id)
}
