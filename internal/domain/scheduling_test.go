package domain

import (
	"errors"
	"testing"
	"time"
)

func TestSchedulingStateValidate(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		state   SchedulingState
		wantErr bool
	}{
		{"new card", NewSchedulingState(), false},
		{"reviewed card", SchedulingState{Stability: 2.5, Difficulty: 5, ScheduledDays: 6, Reps: 1, Phase: PhaseLearning, LastReview: &now}, false},
		{"new phase with reps", SchedulingState{Stability: 1, Difficulty: 5, ScheduledDays: 1, Reps: 1, Phase: PhaseNew}, true},
		{"review phase without reps", SchedulingState{Phase: PhaseReview}, true},
		{"unknown phase", SchedulingState{Phase: "mastered"}, true},
		{"difficulty too high", SchedulingState{Stability: 1, Difficulty: 10.5, ScheduledDays: 1, Reps: 2, Phase: PhaseReview}, true},
		{"stability too low", SchedulingState{Stability: 0.05, Difficulty: 5, ScheduledDays: 1, Reps: 2, Phase: PhaseReview}, true},
		{"zero interval after review", SchedulingState{Stability: 1, Difficulty: 5, ScheduledDays: 0, Reps: 2, Phase: PhaseReview}, true},
		{"negative lapses", SchedulingState{Lapses: -1, Phase: PhaseNew}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.state.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSchedulingState) {
					t.Errorf("Expected ErrInvalidSchedulingState, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestNextReviewAt(t *testing.T) {
	t.Parallel()
	if NewSchedulingState().NextReviewAt() != nil {
		t.Error("Expected nil due date for a new card")
	}

	last := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	s := SchedulingState{ScheduledDays: 14, LastReview: &last}
	want := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	if got := s.NextReviewAt(); got == nil || !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
