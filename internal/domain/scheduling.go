package domain

import (
	"fmt"
	"math"
	"time"
)

// Phase tags where a card sits in its learning lifecycle.
type Phase string

const (
	// PhaseNew is a card that has never been reviewed.
	PhaseNew Phase = "new"
	// PhaseLearning is a card in its first successful reviews.
	PhaseLearning Phase = "learning"
	// PhaseReview is a card in regular review.
	PhaseReview Phase = "review"
	// PhaseRelearning is a card that was forgotten on its last review.
	PhaseRelearning Phase = "relearning"
)

// IsValid reports whether p is one of the known phases.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseNew, PhaseLearning, PhaseReview, PhaseRelearning:
		return true
	default:
		return false
	}
}

// Bounds shared by every scheduling state.
const (
	MinDifficulty = 1.0
	MaxDifficulty = 10.0
	MinStability  = 0.1
)

// SchedulingState is the memory model attached to a card.
type SchedulingState struct {
	Stability     float64    `json:"stability"`
	Difficulty    float64    `json:"difficulty"`
	ElapsedDays   int        `json:"elapsed_days"`
	ScheduledDays int        `json:"scheduled_days"`
	Reps          int        `json:"reps"`
	Lapses        int        `json:"lapses"`
	Phase         Phase      `json:"state"`
	LastReview    *time.Time `json:"last_review,omitempty"`
}

// NewSchedulingState returns the state of a never-reviewed card. Stability and
// difficulty are zero until the first review initializes them.
func NewSchedulingState() SchedulingState {
	return SchedulingState{Phase: PhaseNew}
}

// IsNew reports whether the card has never been reviewed.
func (s SchedulingState) IsNew() bool {
	return s.Reps == 0
}

// NextReviewAt returns when the card is next due, or nil for a new card.
func (s SchedulingState) NextReviewAt() *time.Time {
	if s.LastReview == nil {
		return nil
	}
	due := s.LastReview.AddDate(0, 0, s.ScheduledDays)
	return &due
}

// Validate checks the invariants a persisted state must hold.
// Stability and difficulty bounds only apply once the card has been reviewed.
func (s SchedulingState) Validate() error {
	if !s.Phase.IsValid() {
		return fmt.Errorf("%w: unknown phase %q", ErrInvalidSchedulingState, s.Phase)
	}
	if s.Reps < 0 || s.Lapses < 0 || s.ElapsedDays < 0 || s.ScheduledDays < 0 {
		return fmt.Errorf("%w: negative counter", ErrInvalidSchedulingState)
	}
	if (s.Phase == PhaseNew) != (s.Reps == 0) {
		return fmt.Errorf("%w: phase %q with %d reps", ErrInvalidSchedulingState, s.Phase, s.Reps)
	}
	if math.IsNaN(s.Stability) || math.IsNaN(s.Difficulty) {
		return fmt.Errorf("%w: NaN parameter", ErrInvalidSchedulingState)
	}
	if s.Reps == 0 {
		return nil
	}
	if s.Stability < MinStability {
		return fmt.Errorf("%w: stability %.4f below %.1f", ErrInvalidSchedulingState, s.Stability, MinStability)
	}
	if s.Difficulty < MinDifficulty || s.Difficulty > MaxDifficulty {
		return fmt.Errorf("%w: difficulty %.4f outside [%.0f, %.0f]",
			ErrInvalidSchedulingState, s.Difficulty, MinDifficulty, MaxDifficulty)
	}
	if s.ScheduledDays < 1 {
		return fmt.Errorf("%w: scheduled days must be at least 1 after a review", ErrInvalidSchedulingState)
	}
	return nil
}
