package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printhouse-ops/printhouse/internal/docnum"
)

// ErrInvalidStatus indicates an unknown payment status was requested.
var ErrInvalidStatus = errors.New("orders: invalid payment status")

// CreateOrderInput for creating orders.
type CreateOrderInput struct {
	CustomerID  int64
	QuoteID     *int64
	TotalAmount float64
}

// PaymentInput for recording payments.
type PaymentInput struct {
	Amount float64
	Method string
	Status PaymentStatus
}

// Service handles order and payment business logic.
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

// Create allocates an order number and inserts the order in one transaction.
// A number collision rolls the whole unit back and reallocates.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if input.CustomerID == 0 {
		return nil, errors.New("customer ID required")
	}
	if input.TotalAmount <= 0 {
		return nil, errors.New("total amount must be positive")
	}

	var created *Order
	err := docnum.Retry(ctx, s.numberingRetries, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			now := s.now()
			number, err := docnum.Next(ctx, repo.Counters(), docnum.SeriesOrder, now.Year())
			if err != nil {
				return fmt.Errorf("allocate order number: %w", err)
			}

			order := Order{
				OrderNumber: number,
				CustomerID:  input.CustomerID,
				QuoteID:     input.QuoteID,
				TotalAmount: input.TotalAmount,
				BalanceDue:  input.TotalAmount,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			id, err := repo.Create(ctx, order)
			if err != nil {
				return err
			}
			order.ID = id
			created = &order
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("order created",
			slog.Int64("order_id", created.ID),
			slog.String("order_number", created.OrderNumber))
	}
	return created, nil
}

// RecordPayment inserts a payment and reconciles the balance in the same
// transaction, so no reader observes the payment without the updated balance.
func (s *Service) RecordPayment(ctx context.Context, orderID int64, input PaymentInput) (*Payment, *Order, error) {
	if input.Amount <= 0 {
		return nil, nil, errors.New("amount must be positive")
	}
	status := input.Status
	if status == "" {
		status = PaymentPending
	}
	if !status.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var (
		payment Payment
		order   *Order
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		order, err = repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}

		now := s.now()
		payment = Payment{
			OrderID:   orderID,
			Reference: uuid.NewString(),
			Amount:    input.Amount,
			Status:    status,
			Method:    input.Method,
			CreatedAt: now,
			UpdatedAt: now,
		}
		payment.ID, err = repo.InsertPayment(ctx, payment)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		return s.reconcile(ctx, repo, order)
	})
	if err != nil {
		return nil, nil, err
	}
	return &payment, order, nil
}

// UpdatePaymentStatus transitions a payment and reconciles the balance
// atomically with the status write.
func (s *Service) UpdatePaymentStatus(ctx context.Context, orderID, paymentID int64, status PaymentStatus) (*Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var order *Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		order, err = repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		if _, err := repo.GetPayment(ctx, orderID, paymentID); err != nil {
			return fmt.Errorf("get payment: %w", err)
		}
		if err := repo.UpdatePaymentStatus(ctx, paymentID, status, s.now()); err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		return s.reconcile(ctx, repo, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Reconcile recomputes the balance from the full payment history. Calling it
// twice without an intervening payment change yields the same balance.
func (s *Service) Reconcile(ctx context.Context, orderID int64) (*Order, error) {
	var order *Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		order, err = repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		return s.reconcile(ctx, repo, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) reconcile(ctx context.Context, repo Repository, order *Order) error {
	completed, refunded, err := repo.PaymentTotals(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("aggregate payments: %w", err)
	}
	balance := decimal.NewFromFloat(order.TotalAmount).
		Sub(decimal.NewFromFloat(completed)).
		Add(decimal.NewFromFloat(refunded)).
		Round(2)

	order.BalanceDue = balance.InexactFloat64()
	order.UpdatedAt = s.now()
	if err := repo.UpdateBalance(ctx, order.ID, order.BalanceDue, order.UpdatedAt); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return nil
}

// Get returns an order by id.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// ListPayments returns the payment history of an order.
func (s *Service) ListPayments(ctx context.Context, orderID int64) ([]Payment, error) {
	if _, err := s.repo.Get(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, orderID)
}
