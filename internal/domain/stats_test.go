package domain

import (
	"testing"
	"time"
)

func TestReviewTallyRecord(t *testing.T) {
	t.Parallel()
	var tally ReviewTally
	day1 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	tally.Record(true, day1)
	tally.Record(false, day1.Add(3*time.Hour))
	tally.Record(true, day1.Add(24*time.Hour))

	if tally.TotalReviews != 3 {
		t.Errorf("Expected 3 reviews, got %d", tally.TotalReviews)
	}
	if tally.CorrectReviews != 2 {
		t.Errorf("Expected 2 correct reviews, got %d", tally.CorrectReviews)
	}
	if tally.DaysStudied != 2 {
		t.Errorf("Expected 2 study days, got %d", tally.DaysStudied)
	}
	want := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	if tally.LastActiveDate == nil || !tally.LastActiveDate.Equal(want) {
		t.Errorf("Expected last active %v, got %v", want, tally.LastActiveDate)
	}
}

func TestReviewTallyRecordOutOfOrder(t *testing.T) {
	t.Parallel()
	var tally ReviewTally
	day1 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	tally.Record(true, day1)
	tally.Record(true, day2)
	tally.Record(true, day1.Add(time.Hour))

	if tally.TotalReviews != 3 {
		t.Errorf("Expected 3 reviews, got %d", tally.TotalReviews)
	}
	if tally.DaysStudied != 2 {
		t.Errorf("Expected 2 study days, got %d", tally.DaysStudied)
	}
	if want := StudyDay(day2); tally.LastActiveDate == nil || !tally.LastActiveDate.Equal(want) {
		t.Errorf("Expected last active %v, got %v", want, tally.LastActiveDate)
	}
}

func TestReviewTallyAccuracy(t *testing.T) {
	t.Parallel()
	if got := (ReviewTally{}).Accuracy(); got != 0 {
		t.Errorf("Expected 0 accuracy without reviews, got %f", got)
	}
	if got := (ReviewTally{TotalReviews: 4, CorrectReviews: 3}).Accuracy(); got != 75 {
		t.Errorf("Expected 75, got %f", got)
	}
}

func TestIsCorrectScore(t *testing.T) {
	t.Parallel()
	cases := map[float64]bool{0.69: false, 0.7: true, 1.0: true, 0: false}
	for score, want := range cases {
		if got := IsCorrectScore(score); got != want {
			t.Errorf("IsCorrectScore(%v) = %v, want %v", score, got, want)
		}
	}
}
