package validation

import (
	"context"
	"errors"

	"github.com/phrazzld/scry-tutor/internal/domain"
)

var (
	// ErrValidatorUnavailable is returned when a scoring tier call fails,
	// including tier timeouts.
	ErrValidatorUnavailable = errors.New("validator unavailable")

	// ErrNoTiers is returned when a cascade is built without tiers.
	ErrNoTiers = errors.New("cascade requires at least one tier")
)

// Input is everything a tier may use to score one answer.
type Input struct {
	Question          string
	Expected          string
	Submitted         string
	ExpectedEmbedding []float32
}

// Scorer is one validation strategy. Score returns the tier's outcome and
// whether the tier accepts it as final. A tier that cannot decide returns
// accepted=false with a nil error so the cascade escalates.
type Scorer interface {
	Method() domain.ValidationMethod
	Score(ctx context.Context, in Input) (domain.ValidationOutcome, bool, error)
}
