package domain

import (
	"time"

	"github.com/google/uuid"
)

// CorrectScoreThreshold is the minimum validation score counted as a correct
// review in aggregate statistics.
const CorrectScoreThreshold = 0.7

// ReviewTally holds the counters shared by user and deck statistics.
type ReviewTally struct {
	TotalReviews   int        `json:"total_reviews"`
	CorrectReviews int        `json:"correct_reviews"`
	DaysStudied    int        `json:"days_studied"`
	LastActiveDate *time.Time `json:"last_active_date,omitempty"`
}

// Accuracy returns the percentage of correct reviews, or 0 with no reviews.
func (t ReviewTally) Accuracy() float64 {
	if t.TotalReviews == 0 {
		return 0
	}
	return float64(t.CorrectReviews) / float64(t.TotalReviews) * 100
}

// Record folds one review into the tally. A review on a UTC date after
// LastActiveDate counts as a new study day. Reviews may arrive out of order,
// so an earlier date never moves LastActiveDate back.
func (t *ReviewTally) Record(correct bool, at time.Time) {
	day := StudyDay(at)
	t.TotalReviews++
	if correct {
		t.CorrectReviews++
	}
	if t.LastActiveDate == nil || day.After(*t.LastActiveDate) {
		t.DaysStudied++
		t.LastActiveDate = &day
	}
}

// StudyDay truncates t to its UTC calendar date.
func StudyDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// IsCorrectScore reports whether a score counts as a correct review.
func IsCorrectScore(score float64) bool {
	return score >= CorrectScoreThreshold
}

// UserStats aggregates a user's review history.
type UserStats struct {
	UserID uuid.UUID `json:"user_id"`
	ReviewTally
	UpdatedAt time.Time `json:"updated_at"`
}

// DeckStats aggregates reviews of cards in one deck.
type DeckStats struct {
	DeckID     uuid.UUID `json:"deck_id"`
	UserID     uuid.UUID `json:"user_id"`
	TotalCards int       `json:"total_cards"`
	ReviewTally
	UpdatedAt time.Time `json:"updated_at"`
}
