package gemini

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-tutor/internal/scoring"
	"github.com/sethvargo/go-retry"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 500 * time.Millisecond
	jitterPercent     = 50
)

// retryPolicy runs API calls with exponential backoff and jitter.
type retryPolicy struct {
	maxRetries uint64
	baseDelay  time.Duration
}

func newRetryPolicy(maxRetries int, baseDelay time.Duration) retryPolicy {
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	return retryPolicy{maxRetries: uint64(maxRetries), baseDelay: baseDelay}
}

// do calls fn until it succeeds, returns an error not tagged
// scoring.ErrTransientFailure, or the retry budget runs out.
func (p retryPolicy) do(ctx context.Context, log *slog.Logger, op string, fn func(ctx context.Context) error) error {
	b := retry.NewExponential(p.baseDelay)
	b = retry.WithJitterPercent(jitterPercent, b)
	b = retry.WithMaxRetries(p.maxRetries, b)

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		transient := errors.Is(err, scoring.ErrTransientFailure) && ctx.Err() == nil
		log.WarnContext(ctx, "gemini call failed",
			slog.String("operation", op),
			slog.Int("attempt", attempt),
			slog.Bool("retryable", transient),
			slog.String("error", err.Error()))
		if transient {
			return retry.RetryableError(err)
		}
		return err
	})
}
