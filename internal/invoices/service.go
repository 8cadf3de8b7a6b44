package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/printhouse-ops/printhouse/internal/docnum"
	"github.com/printhouse-ops/printhouse/internal/orders"
)

// ErrAlreadyInvoiced indicates the order already has an invoice.
var ErrAlreadyInvoiced = errors.New("invoices: order already invoiced")

// DefaultPaymentTerm is the standard net payment window.
const DefaultPaymentTerm = 30 * 24 * time.Hour

// OrderPort is the slice of the orders domain the invoicer needs.
type OrderPort interface {
	Get(ctx context.Context, id int64) (*orders.Order, error)
}

// Service issues invoices against orders.
type Service struct {
	repo             Repository
	orders           OrderPort
	logger           *slog.Logger
	numberingRetries int
	now              func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, orderPort OrderPort, logger *slog.Logger, numberingRetries int) *Service {
	return &Service{
		repo:             repo,
		orders:           orderPort,
		logger:           logger,
		numberingRetries: numberingRetries,
		now:              time.Now,
	}
}

// CreateForOrder issues an invoice for the order, snapshotting its total.
// The invoice number is allocated inside the insert transaction so a failed
// insert never leaks a committed number. The one-invoice-per-order check runs
// in that same transaction, backed by the unique index on invoices.order_id,
// so concurrent calls cannot both issue.
func (s *Service) CreateForOrder(ctx context.Context, orderID int64) (*Invoice, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}

	var created *Invoice
	err = docnum.Retry(ctx, s.numberingRetries, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			if _, err := repo.GetByOrder(ctx, orderID); err == nil {
				return ErrAlreadyInvoiced
			} else if !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("check existing invoice: %w", err)
			}

			now := s.now()
			number, err := docnum.Next(ctx, repo.Counters(), docnum.SeriesInvoice, now.Year())
			if err != nil {
				return fmt.Errorf("allocate invoice number: %w", err)
			}

			inv := Invoice{
				InvoiceNumber: number,
				OrderID:       order.ID,
				CustomerID:    order.CustomerID,
				TotalAmount:   order.TotalAmount,
				Status:        StatusIssued,
				IssuedAt:      now,
				DueAt:         now.Add(DefaultPaymentTerm),
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			id, err := repo.Create(ctx, inv)
			if err != nil {
				return err
			}
			inv.ID = id
			created = &inv
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("invoice issued",
			slog.Int64("invoice_id", created.ID),
			slog.String("invoice_number", created.InvoiceNumber),
			slog.Int64("order_id", order.ID))
	}
	return created, nil
}

// Get returns an invoice by id.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

// ListByCustomer returns a customer's invoices in issue order.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]Invoice, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}
