package srs

import (
	"time"

	"github.com/phrazzld/scry-tutor/internal/domain"
)

// Score thresholds for RatingFromScore. Each bracket includes its lower bound.
const (
	EasyScoreThreshold = 0.9
	GoodScoreThreshold = 0.7
	HardScoreThreshold = 0.5
)

// RatingFromScore maps a validation score in [0, 1] onto the scheduler's
// rating scale. The mapping is monotonic; NaN maps to Again.
func RatingFromScore(score float64) domain.Rating {
	switch {
	case score >= EasyScoreThreshold:
		return domain.RatingEasy
	case score >= GoodScoreThreshold:
		return domain.RatingGood
	case score >= HardScoreThreshold:
		return domain.RatingHard
	default:
		return domain.RatingAgain
	}
}

// ElapsedDays returns the whole days between the last review and now. It is 0
// for a card never reviewed and never negative when clocks disagree.
func ElapsedDays(lastReview *time.Time, now time.Time) int {
	if lastReview == nil {
		return 0
	}
	elapsed := now.Sub(*lastReview)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed.Hours() / 24)
}
