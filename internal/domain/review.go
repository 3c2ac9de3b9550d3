package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Rating is the discrete correctness signal the scheduler consumes.
type Rating int

const (
	// RatingAgain means the learner forgot the card.
	RatingAgain Rating = 1
	// RatingHard means the card was recalled with serious difficulty.
	RatingHard Rating = 2
	// RatingGood means the card was recalled after some hesitation.
	RatingGood Rating = 3
	// RatingEasy means the card was recalled effortlessly.
	RatingEasy Rating = 4
)

// IsValid reports whether r is within Again..Easy.
func (r Rating) IsValid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

func (r Rating) String() string {
	switch r {
	case RatingAgain:
		return "again"
	case RatingHard:
		return "hard"
	case RatingGood:
		return "good"
	case RatingEasy:
		return "easy"
	default:
		return fmt.Sprintf("rating(%d)", int(r))
	}
}

// ValidationMethod names the validator tier that produced a final score.
type ValidationMethod string

const (
	MethodExact      ValidationMethod = "exact"
	MethodEmbedding  ValidationMethod = "embedding"
	MethodGenerative ValidationMethod = "generative"
)

// IsValid reports whether m is a known method.
func (m ValidationMethod) IsValid() bool {
	switch m {
	case MethodExact, MethodEmbedding, MethodGenerative:
		return true
	default:
		return false
	}
}

// ValidationOutcome is the result of validating one submitted answer.
type ValidationOutcome struct {
	Score  float64          `json:"score"`
	Method ValidationMethod `json:"method"`
}

// Review log validation errors
var (
	// ErrReviewLogCardIDEmpty is returned when a review log has no card reference.
	ErrReviewLogCardIDEmpty = errors.New("review log card ID cannot be empty")

	// ErrReviewLogUserIDEmpty is returned when a review log has no user reference.
	ErrReviewLogUserIDEmpty = errors.New("review log user ID cannot be empty")

	// ErrReviewLogScoreRange is returned when a score lies outside [0, 1].
	ErrReviewLogScoreRange = errors.New("review log score must be within [0, 1]")
)

// ReviewLog is the append-only audit record written once per review.
type ReviewLog struct {
	ID             uuid.UUID        `json:"id"`
	CardID         uuid.UUID        `json:"card_id"`
	UserID         uuid.UUID        `json:"user_id"`
	UserAnswer     string           `json:"user_answer"`
	ExpectedAnswer string           `json:"expected_answer"`
	Score          float64          `json:"score"`
	Method         ValidationMethod `json:"validation_method"`
	Rating         Rating           `json:"rating"`
	ScheduledDays  int              `json:"scheduled_days"`
	CreatedAt      time.Time        `json:"created_at"`
}

// NewReviewLog assembles the audit record for a completed review.
func NewReviewLog(
	card *Card,
	userID uuid.UUID,
	userAnswer string,
	outcome ValidationOutcome,
	rating Rating,
	scheduledDays int,
	now time.Time,
) (*ReviewLog, error) {
	log := &ReviewLog{
		ID:             uuid.New(),
		CardID:         card.ID,
		UserID:         userID,
		UserAnswer:     userAnswer,
		ExpectedAnswer: card.Answer,
		Score:          outcome.Score,
		Method:         outcome.Method,
		Rating:         rating,
		ScheduledDays:  scheduledDays,
		CreatedAt:      now.UTC(),
	}

	if err := log.Validate(); err != nil {
		return nil, err
	}
	return log, nil
}

// Validate checks if the ReviewLog has valid data.
func (l *ReviewLog) Validate() error {
	if l.CardID == uuid.Nil {
		return ErrReviewLogCardIDEmpty
	}
	if l.UserID == uuid.Nil {
		return ErrReviewLogUserIDEmpty
	}
	if l.Score < 0 || l.Score > 1 {
		return ErrReviewLogScoreRange
	}
	if !l.Method.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidValidationMethod, l.Method)
	}
	if !l.Rating.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidRating, l.Rating)
	}
	return nil
}
