package srs

import (
	"math"
	"time"

	"github.com/phrazzld/scry-tutor/internal/domain"
)

// calculateNewStability applies the rating's stability multiplier.
//
// Parameters:
//   - current: The stability before the review (already initialized for new cards)
//   - rating: The rating derived from the validation score
//   - params: Configuration parameters for the scheduler
//
// Returns:
//   - The new stability, never below params.MinStability
func calculateNewStability(current float64, rating domain.Rating, params *Params) float64 {
	return math.Max(current*params.StabilityFactor[rating], params.MinStability)
}

// calculateNewDifficulty applies the rating's difficulty delta and clamps the
// result to [params.MinDifficulty, params.MaxDifficulty].
func calculateNewDifficulty(current float64, rating domain.Rating, params *Params) float64 {
	return clamp(current+params.DifficultyDelta[rating], params.MinDifficulty, params.MaxDifficulty)
}

// calculateScheduledDays determines the interval until the next review.
//
// The interval is derived from the stability produced by this same review,
// so a Hard review on a card at stability 10 yields stability 12 and an
// interval of round(12 * 1.2) = 14 days.
//
// Algorithm behavior:
//   - "Again" always schedules params.AgainIntervalDays
//   - Other ratings round half-up and clamp to [1, params.MaxIntervalDays]
func calculateScheduledDays(newStability float64, rating domain.Rating, params *Params) int {
	if rating == domain.RatingAgain {
		return params.AgainIntervalDays
	}

	days := math.Round(newStability * params.IntervalFactor[rating])
	if days < 1 {
		return 1
	}
	if days > float64(params.MaxIntervalDays) {
		return params.MaxIntervalDays
	}
	return int(days)
}

// calculateNextPhase picks the phase tag after a review. reps is the count
// including the review being applied.
func calculateNextPhase(reps int, rating domain.Rating) domain.Phase {
	switch rating {
	case domain.RatingAgain:
		return domain.PhaseRelearning
	case domain.RatingEasy:
		return domain.PhaseReview
	default:
		if reps <= 1 {
			return domain.PhaseLearning
		}
		return domain.PhaseReview
	}
}

// calculateNextState is the pure transition function. It never mutates the
// input state and performs no I/O; ElapsedDays is carried through unchanged.
func calculateNextState(
	state domain.SchedulingState,
	rating domain.Rating,
	now time.Time,
	params *Params,
) domain.SchedulingState {
	next := state

	if state.IsNew() {
		next.Stability = params.InitialStability
		next.Difficulty = params.InitialDifficulty
	}

	next.Stability = calculateNewStability(next.Stability, rating, params)
	next.Difficulty = calculateNewDifficulty(next.Difficulty, rating, params)
	next.ScheduledDays = calculateScheduledDays(next.Stability, rating, params)

	if rating == domain.RatingAgain {
		next.Lapses++
	}
	next.Reps++
	next.Phase = calculateNextPhase(next.Reps, rating)

	reviewedAt := now.UTC()
	next.LastReview = &reviewedAt

	// Final clamp so that any custom params still honour the state bounds
	next.Stability = math.Max(next.Stability, params.MinStability)
	next.Difficulty = clamp(next.Difficulty, params.MinDifficulty, params.MaxDifficulty)

	return next
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
