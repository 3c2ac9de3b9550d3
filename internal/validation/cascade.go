package validation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/scoring"
)

// CascadeOptions tunes failure handling.
type CascadeOptions struct {
	// FallbackOnTierError lets a failing non-final tier hand over to the next
	// tier instead of failing the validation.
	FallbackOnTierError bool

	// TierTimeout bounds each tier call. Zero disables the bound.
	TierTimeout time.Duration
}

// Cascade runs tiers in order until one accepts.
type Cascade struct {
	tiers  []Scorer
	opts   CascadeOptions
	logger *slog.Logger
}

// NewCascade creates a Cascade over tiers, in the given order.
func NewCascade(log *slog.Logger, opts CascadeOptions, tiers ...Scorer) (*Cascade, error) {
	if len(tiers) == 0 {
		return nil, ErrNoTiers
	}
	for i, tier := range tiers {
		if tier == nil {
			return nil, fmt.Errorf("tier %d cannot be nil", i)
		}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Cascade{
		tiers:  tiers,
		opts:   opts,
		logger: log.With(slog.String("component", "validation_cascade")),
	}, nil
}

// Validate scores one answer. Tier failures are returned wrapped in
// ErrValidatorUnavailable; cancellation of ctx is returned as ctx.Err().
func (c *Cascade) Validate(ctx context.Context, in Input) (domain.ValidationOutcome, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	for i, tier := range c.tiers {
		final := i == len(c.tiers)-1

		outcome, accepted, err := c.runTier(ctx, tier, in)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return domain.ValidationOutcome{}, ctxErr
			}

			tierErr := fmt.Errorf("%w: %s tier: %w", ErrValidatorUnavailable, tier.Method(), err)
			if final || !c.opts.FallbackOnTierError {
				log.ErrorContext(ctx, "validation tier failed",
					slog.String("method", string(tier.Method())),
					slog.String("error", err.Error()))
				return domain.ValidationOutcome{}, tierErr
			}

			log.WarnContext(ctx, "validation tier failed, falling back to next tier",
				slog.String("method", string(tier.Method())),
				slog.String("error", err.Error()))
			continue
		}

		if accepted || final {
			outcome.Score = scoring.ClampScore(outcome.Score)
			outcome.Method = tier.Method()
			log.DebugContext(ctx, "answer validated",
				slog.String("method", string(outcome.Method)),
				slog.Float64("score", outcome.Score))
			return outcome, nil
		}
	}

	// Unreachable: the final tier always returns above.
	return domain.ValidationOutcome{}, ErrNoTiers
}

func (c *Cascade) runTier(ctx context.Context, tier Scorer, in Input) (domain.ValidationOutcome, bool, error) {
	if c.opts.TierTimeout <= 0 {
		return tier.Score(ctx, in)
	}
	tierCtx, cancel := context.WithTimeout(ctx, c.opts.TierTimeout)
	defer cancel()
	return tier.Score(tierCtx, in)
}
