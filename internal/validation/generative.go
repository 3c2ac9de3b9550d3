package validation

import (
	"context"
	"errors"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/scoring"
)

// GenerativeTier asks a Judge to score the answer in context. Its score is
// always accepted.
type GenerativeTier struct {
	judge scoring.Judge
}

var _ Scorer = (*GenerativeTier)(nil)

// NewGenerativeTier creates a GenerativeTier.
func NewGenerativeTier(judge scoring.Judge) (*GenerativeTier, error) {
	if judge == nil {
		return nil, errors.New("judge cannot be nil")
	}
	return &GenerativeTier{judge: judge}, nil
}

// Method implements Scorer.
func (t *GenerativeTier) Method() domain.ValidationMethod {
	return domain.MethodGenerative
}

// Score implements Scorer.
func (t *GenerativeTier) Score(ctx context.Context, in Input) (domain.ValidationOutcome, bool, error) {
	score, err := t.judge.Judge(ctx, in.Question, in.Expected, in.Submitted)
	if err != nil {
		return domain.ValidationOutcome{Method: domain.MethodGenerative}, false, err
	}
	return domain.ValidationOutcome{
		Score:  scoring.ClampScore(score),
		Method: domain.MethodGenerative,
	}, true, nil
}
