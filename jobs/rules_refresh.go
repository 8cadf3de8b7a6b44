package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/printhouse-ops/printhouse/internal/jobs"
)

// CacheInvalidator drops cached pricing rules so edits become visible.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// RulesCacheRefreshJob periodically bumps the rules cache version.
type RulesCacheRefreshJob struct {
	Cache   CacheInvalidator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewRulesCacheRefreshJob initialises the refresh handler.
func NewRulesCacheRefreshJob(cache CacheInvalidator, logger *slog.Logger, metrics *jobmetrics.Metrics) *RulesCacheRefreshJob {
	return &RulesCacheRefreshJob{Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle executes the refresh.
func (j *RulesCacheRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Cache == nil {
		return errors.New("rules refresh: handler not configured")
	}

	tracker := j.metrics().Track(TaskTypeRulesCacheRefresh)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if err := j.Cache.Invalidate(ctx); err != nil {
		resultErr = err
		j.logger().Error("rules cache refresh failed", slog.Any("error", err))
		return resultErr
	}
	j.logger().Info("rules cache refreshed")
	return nil
}

func (j *RulesCacheRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeRulesCacheRefresh))
	}
	return slog.Default().With(slog.String("job", TaskTypeRulesCacheRefresh))
}

func (j *RulesCacheRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
