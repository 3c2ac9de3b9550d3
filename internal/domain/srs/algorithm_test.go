package srs

import (
	"math"
	"testing"
	"time"

	"github.com/phrazzld/scry-tutor/internal/domain"
)

const floatTolerance = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

var allRatings = []domain.Rating{
	domain.RatingAgain,
	domain.RatingHard,
	domain.RatingGood,
	domain.RatingEasy,
}

func TestCalculateNextStateFirstReview(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2026, 1, 10, 15, 0, 0, 0, time.UTC)

	testCases := []struct {
		name           string
		rating         domain.Rating
		wantStability  float64
		wantDifficulty float64
		wantDays       int
		wantPhase      domain.Phase
		wantLapses     int
	}{
		{
			name:           "Again on a new card relearns",
			rating:         domain.RatingAgain,
			wantStability:  0.5,
			wantDifficulty: 6.0,
			wantDays:       1,
			wantPhase:      domain.PhaseRelearning,
			wantLapses:     1,
		},
		{
			name:           "Hard on a new card is learning",
			rating:         domain.RatingHard,
			wantStability:  1.2,
			wantDifficulty: 5.15,
			wantDays:       1, // round(1.44)
			wantPhase:      domain.PhaseLearning,
		},
		{
			name:           "Good on a new card is learning",
			rating:         domain.RatingGood,
			wantStability:  2.5,
			wantDifficulty: 5.0,
			wantDays:       6, // round(6.25)
			wantPhase:      domain.PhaseLearning,
		},
		{
			name:           "Easy on a new card goes straight to review",
			rating:         domain.RatingEasy,
			wantStability:  4.0,
			wantDifficulty: 4.85,
			wantDays:       16, // round(4.0 * 4.0)
			wantPhase:      domain.PhaseReview,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			next := calculateNextState(domain.NewSchedulingState(), tc.rating, now, params)

			if !approxEqual(next.Stability, tc.wantStability) {
				t.Errorf("stability: expected %v, got %v", tc.wantStability, next.Stability)
			}
			if !approxEqual(next.Difficulty, tc.wantDifficulty) {
				t.Errorf("difficulty: expected %v, got %v", tc.wantDifficulty, next.Difficulty)
			}
			if next.ScheduledDays != tc.wantDays {
				t.Errorf("scheduled days: expected %d, got %d", tc.wantDays, next.ScheduledDays)
			}
			if next.Phase != tc.wantPhase {
				t.Errorf("phase: expected %s, got %s", tc.wantPhase, next.Phase)
			}
			if next.Lapses != tc.wantLapses {
				t.Errorf("lapses: expected %d, got %d", tc.wantLapses, next.Lapses)
			}
			if next.Reps != 1 {
				t.Errorf("reps: expected 1, got %d", next.Reps)
			}
			if next.LastReview == nil || !next.LastReview.Equal(now) {
				t.Errorf("last review: expected %v, got %v", now, next.LastReview)
			}
		})
	}
}

func TestCalculateNextStateMatureHard(t *testing.T) {
	t.Parallel()
	last := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	state := domain.SchedulingState{
		Stability:     10.0,
		Difficulty:    5.0,
		ElapsedDays:   9,
		ScheduledDays: 9,
		Reps:          5,
		Phase:         domain.PhaseReview,
		LastReview:    &last,
	}

	next := calculateNextState(state, domain.RatingHard, last.AddDate(0, 0, 9), NewDefaultParams())

	if !approxEqual(next.Stability, 12.0) {
		t.Errorf("stability: expected 12.0, got %v", next.Stability)
	}
	if next.ScheduledDays != 14 {
		t.Errorf("scheduled days: expected 14, got %d", next.ScheduledDays)
	}
	if next.Phase != domain.PhaseReview {
		t.Errorf("phase: expected review, got %s", next.Phase)
	}
	if next.Reps != 6 {
		t.Errorf("reps: expected 6, got %d", next.Reps)
	}
	if next.ElapsedDays != 9 {
		t.Errorf("elapsed days should pass through unchanged, got %d", next.ElapsedDays)
	}
}

func TestCalculateNextStateDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	last := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	state := domain.SchedulingState{Stability: 3, Difficulty: 4, ScheduledDays: 3, Reps: 2, Phase: domain.PhaseReview, LastReview: &last}
	before := state

	_ = calculateNextState(state, domain.RatingAgain, last.AddDate(0, 0, 3), NewDefaultParams())

	if state.Stability != before.Stability || state.Reps != before.Reps || !state.LastReview.Equal(last) {
		t.Errorf("input state was mutated: %+v", state)
	}
}

func TestSecondReviewLeavesLearning(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	first := calculateNextState(domain.NewSchedulingState(), domain.RatingGood, now, params)
	second := calculateNextState(first, domain.RatingGood, now.AddDate(0, 0, first.ScheduledDays), params)

	if first.Phase != domain.PhaseLearning {
		t.Errorf("first review: expected learning, got %s", first.Phase)
	}
	if second.Phase != domain.PhaseReview {
		t.Errorf("second review: expected review, got %s", second.Phase)
	}
	if !approxEqual(second.Stability, 6.25) {
		t.Errorf("expected stability 6.25, got %v", second.Stability)
	}
}

// TestTransitionBounds walks many random-ish histories and checks the bounds
// hold after every step.
func TestTransitionBounds(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for seed := 0; seed < 64; seed++ {
		state := domain.NewSchedulingState()
		lapses := 0
		for step := 0; step < 40; step++ {
			rating := allRatings[(seed*7+step*step+step)%len(allRatings)]
			prevReps := state.Reps
			state = calculateNextState(state, rating, now.AddDate(0, 0, step), params)

			if rating == domain.RatingAgain {
				lapses++
			}
			if state.Lapses != lapses {
				t.Fatalf("seed %d step %d: expected %d lapses, got %d", seed, step, lapses, state.Lapses)
			}
			if state.Reps != prevReps+1 {
				t.Fatalf("seed %d step %d: reps not incremented", seed, step)
			}
			if state.Difficulty < domain.MinDifficulty || state.Difficulty > domain.MaxDifficulty {
				t.Fatalf("seed %d step %d: difficulty %v out of bounds", seed, step, state.Difficulty)
			}
			if state.Stability < domain.MinStability {
				t.Fatalf("seed %d step %d: stability %v below minimum", seed, step, state.Stability)
			}
			if state.ScheduledDays < 1 || state.ScheduledDays > params.MaxIntervalDays {
				t.Fatalf("seed %d step %d: scheduled days %d out of bounds", seed, step, state.ScheduledDays)
			}
			if err := state.Validate(); err != nil {
				t.Fatalf("seed %d step %d: %v", seed, step, err)
			}
		}
	}
}

func TestRepeatedAgainFloorsStability(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Now()
	state := domain.NewSchedulingState()
	for i := 0; i < 10; i++ {
		state = calculateNextState(state, domain.RatingAgain, now, params)
	}
	if !approxEqual(state.Stability, 0.1) {
		t.Errorf("expected stability floor 0.1, got %v", state.Stability)
	}
	if !approxEqual(state.Difficulty, 10) {
		t.Errorf("expected difficulty ceiling 10, got %v", state.Difficulty)
	}
	if state.Phase != domain.PhaseRelearning {
		t.Errorf("expected relearning, got %s", state.Phase)
	}
}

func TestScheduledDaysCapped(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	if got := calculateScheduledDays(1e9, domain.RatingEasy, params); got != params.MaxIntervalDays {
		t.Errorf("expected cap %d, got %d", params.MaxIntervalDays, got)
	}
}

func TestScheduledDaysRoundsHalfUp(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	// 1.5 * 2.5 = 3.75 -> 4; 1.0 * 2.5 = 2.5 -> 3
	if got := calculateScheduledDays(1.5, domain.RatingGood, params); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
	if got := calculateScheduledDays(1.0, domain.RatingGood, params); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}
