package procurement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/printhouse-ops/printhouse/internal/docnum"
)

// ErrInvalidStatus indicates an unknown purchase order status.
var ErrInvalidStatus = errors.New("procurement: invalid status")

// CreateInput for creating purchase orders.
type CreateInput struct {
	SupplierID int64
	TotalCost  float64
	Notes      string
}

// Service handles purchase order business logic.
type Service struct {
	repo             Repository
	logger           *slog.Logger
	numberingRetries int
	now              func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, logger *slog.Logger, numberingRetries int) *Service {
	return &Service{
		repo:             repo,
		logger:           logger,
		numberingRetries: numberingRetries,
		now:              time.Now,
	}
}

// Create allocates a PO number and inserts the purchase order in one
// transaction.
func (s *Service) Create(ctx context.Context, input CreateInput) (*PurchaseOrder, error) {
	if input.SupplierID == 0 {
		return nil, errors.New("supplier ID required")
	}
	if input.TotalCost < 0 {
		return nil, errors.New("total cost must not be negative")
	}

	var created *PurchaseOrder
	err := docnum.Retry(ctx, s.numberingRetries, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			now := s.now()
			number, err := docnum.Next(ctx, repo.Counters(), docnum.SeriesPurchaseOrder, now.Year())
			if err != nil {
				return fmt.Errorf("allocate po number: %w", err)
			}

			po := PurchaseOrder{
				PONumber:   number,
				SupplierID: input.SupplierID,
				Status:     StatusDraft,
				TotalCost:  input.TotalCost,
				Notes:      input.Notes,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			id, err := repo.Create(ctx, po)
			if err != nil {
				return err
			}
			po.ID = id
			created = &po
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("purchase order created",
			slog.Int64("po_id", created.ID),
			slog.String("po_number", created.PONumber))
	}
	return created, nil
}

// Get returns a purchase order by id.
func (s *Service) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	return s.repo.Get(ctx, id)
}

// List returns all purchase orders.
func (s *Service) List(ctx context.Context) ([]PurchaseOrder, error) {
	return s.repo.List(ctx)
}

// UpdateStatus transitions a purchase order.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) error {
	switch status {
	case StatusDraft, StatusOrdered, StatusReceived, StatusCancelled:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}
