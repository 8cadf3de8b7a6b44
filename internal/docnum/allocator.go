package docnum

import (
	"context"
	"errors"
	"fmt"

	"github.com/printhouse-ops/printhouse/internal/platform/db"
)

// ErrConflict marks a formatted-number collision detected at insert time.
// Callers wrap their allocate+insert unit in Retry so a collision reallocates
// instead of failing the request.
var ErrConflict = errors.New("docnum: number conflict")

// ErrUnknownSeries is returned for series this package does not number.
var ErrUnknownSeries = errors.New("docnum: unknown series")

// Store advances per-(series, year) counters. Implementations must serialize
// concurrent callers for the same counter.
type Store interface {
	Increment(ctx context.Context, series Series, year int) (int64, error)
}

// Next allocates the next formatted number in (series, year). It must run in
// the same transaction as the insert of the entity that will carry the
// number; the counter row stays locked until that transaction settles.
func Next(ctx context.Context, store Store, series Series, year int) (string, error) {
	if !series.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSeries, series)
	}
	seq, err := store.Increment(ctx, series, year)
	if err != nil {
		return "", fmt.Errorf("increment %s/%d counter: %w", series, year, err)
	}
	return series.Format(year, seq), nil
}

// Retry runs fn up to attempts times while it reports a retryable allocation
// failure: ErrConflict, or a database serialization failure or deadlock that
// aborted the whole unit. Each attempt must be its own transaction so a failed
// one leaves no partial state. Exhausted retries surface as a plain internal
// error; callers cannot match ErrConflict on the result.
func Retry(ctx context.Context, attempts int, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = fn(ctx)
		if err == nil || !retryable(err) {
			return err
		}
	}
	return fmt.Errorf("docnum: %d allocation attempts exhausted: %v", attempts, err)
}

func retryable(err error) bool {
	return errors.Is(err, ErrConflict) || db.IsSerializationFailure(err)
}
