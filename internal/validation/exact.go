package validation

import (
	"context"
	"strings"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/scoring"
)

// ExactTier accepts answers equal to the expected answer after normalization.
type ExactTier struct{}

var _ Scorer = ExactTier{}

// NewExactTier creates an ExactTier.
func NewExactTier() ExactTier {
	return ExactTier{}
}

// Method implements Scorer.
func (ExactTier) Method() domain.ValidationMethod {
	return domain.MethodExact
}

// Score implements Scorer. It performs no I/O.
func (ExactTier) Score(_ context.Context, in Input) (domain.ValidationOutcome, bool, error) {
	if matchesExactly(in.Expected, in.Submitted) {
		return domain.ValidationOutcome{Score: 1.0, Method: domain.MethodExact}, true, nil
	}
	return domain.ValidationOutcome{Score: 0, Method: domain.MethodExact}, false, nil
}

func matchesExactly(expected, submitted string) bool {
	ne := scoring.NormalizeAnswer(expected)
	ns := scoring.NormalizeAnswer(submitted)
	if ne == "" && ns == "" {
		// Answers made only of punctuation compare verbatim
		return strings.TrimSpace(expected) == strings.TrimSpace(submitted)
	}
	return ne == ns
}
