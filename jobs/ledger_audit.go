package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/printhouse-ops/printhouse/internal/jobs"
	"github.com/printhouse-ops/printhouse/internal/orders"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Reconciler recomputes an order's balance from its payment history.
type Reconciler interface {
	Reconcile(ctx context.Context, orderID int64) (*orders.Order, error)
}

// LedgerAuditJob sweeps orders whose stored balance disagrees with their
// payment history and reconciles each one. Drift can only appear through
// out-of-band writes, so findings are logged loudly.
type LedgerAuditJob struct {
	Pool       *pgxpool.Pool
	Reconciler Reconciler
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	clock      func() time.Time
}

// NewLedgerAuditJob initialises the audit handler.
func NewLedgerAuditJob(pool *pgxpool.Pool, reconciler Reconciler, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerAuditJob {
	return &LedgerAuditJob{
		Pool:       pool,
		Reconciler: reconciler,
		Logger:     logger,
		Metrics:    metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the audit sweep.
func (j *LedgerAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("ledger audit: handler not configured")
	}
	var payload LedgerAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.BatchSize <= 0 {
		payload.BatchSize = 500
	}
	if payload.Tolerance <= 0 {
		payload.Tolerance = 0.005
	}

	start := j.now()
	tracker := j.metrics().Track(TaskTypeLedgerAudit)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.Int("batch_size", payload.BatchSize),
		slog.Float64("tolerance", payload.Tolerance),
	)
	logger.Info("starting ledger audit")

	drifted, err := j.findDrifted(ctx, payload)
	if err != nil {
		resultErr = err
		logger.Error("audit scan failed", slog.Any("error", err))
		return resultErr
	}

	j.metrics().AddLedgerDrift(len(drifted))
	repaired := 0
	for _, d := range drifted {
		logger.Warn("ledger drift detected",
			slog.Int64("order_id", d.OrderID),
			slog.Float64("stored", d.Stored),
			slog.Float64("expected", d.Expected),
		)
		if j.Reconciler == nil {
			continue
		}
		if _, err := j.Reconciler.Reconcile(ctx, d.OrderID); err != nil {
			resultErr = err
			logger.Error("reconcile failed", slog.Int64("order_id", d.OrderID), slog.Any("error", err))
			continue
		}
		repaired++
	}

	logger.Info("completed ledger audit",
		slog.Int("drifted", len(drifted)),
		slog.Int("repaired", repaired),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

type driftedOrder struct {
	OrderID  int64
	Stored   float64
	Expected float64
}

func (j *LedgerAuditJob) findDrifted(ctx context.Context, payload LedgerAuditPayload) ([]driftedOrder, error) {
	if j.Pool == nil {
		return nil, errors.New("ledger audit: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `
		SELECT o.id, o.balance_due,
		       (o.total_amount
		         - COALESCE(sum(p.amount) FILTER (WHERE p.status = 'COMPLETED'), 0)
		         + COALESCE(sum(p.amount) FILTER (WHERE p.status = 'REFUNDED'), 0))::double precision AS expected
		FROM orders o
		LEFT JOIN payments p ON p.order_id = o.id
		GROUP BY o.id
		HAVING abs(o.balance_due
		         - (o.total_amount
		             - COALESCE(sum(p.amount) FILTER (WHERE p.status = 'COMPLETED'), 0)
		             + COALESCE(sum(p.amount) FILTER (WHERE p.status = 'REFUNDED'), 0))) > $1
		ORDER BY o.id
		LIMIT $2`, payload.Tolerance, payload.BatchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []driftedOrder
	for rows.Next() {
		var d driftedOrder
		if err := rows.Scan(&d.OrderID, &d.Stored, &d.Expected); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (j *LedgerAuditJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeLedgerAudit))
	}
	return slog.Default().With(slog.String("job", TaskTypeLedgerAudit))
}

func (j *LedgerAuditJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *LedgerAuditJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
