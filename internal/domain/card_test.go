package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewCard(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	deckID := uuid.New()

	card, err := NewCard(userID, &deckID, "  What is hola?  ", " hello ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if card.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}
	if card.Question != "What is hola?" || card.Answer != "hello" {
		t.Errorf("Expected trimmed text, got %q / %q", card.Question, card.Answer)
	}
	if card.State.Phase != PhaseNew || card.State.Reps != 0 {
		t.Errorf("Expected a new scheduling state, got %+v", card.State)
	}
	if card.Version != 1 {
		t.Errorf("Expected version 1, got %d", card.Version)
	}
	if !card.InDeck() {
		t.Error("Expected card to be in a deck")
	}
	if card.HasEmbedding() {
		t.Error("Expected no embedding on a fresh card")
	}
}

func TestNewCardValidation(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	tests := []struct {
		name     string
		userID   uuid.UUID
		question string
		answer   string
		want     error
	}{
		{"nil user", uuid.Nil, "q", "a", ErrCardUserIDEmpty},
		{"empty question", userID, "   ", "a", ErrCardQuestionEmpty},
		{"empty answer", userID, "q", "", ErrCardAnswerEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewCard(tt.userID, nil, tt.question, tt.answer)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected error %v, got %v", tt.want, err)
			}
		})
	}
}

func TestReviewLogValidate(t *testing.T) {
	t.Parallel()
	card, err := NewCard(uuid.New(), nil, "q", "a")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	outcome := ValidationOutcome{Score: 0.95, Method: MethodEmbedding}
	log, err := NewReviewLog(card, card.UserID, "A", outcome, RatingEasy, 16, card.CreatedAt)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if log.ExpectedAnswer != "a" {
		t.Errorf("Expected answer snapshot %q, got %q", "a", log.ExpectedAnswer)
	}

	_, err = NewReviewLog(card, card.UserID, "A", ValidationOutcome{Score: 1.2, Method: MethodExact}, RatingEasy, 1, card.CreatedAt)
	if !errors.Is(err, ErrReviewLogScoreRange) {
		t.Errorf("Expected %v, got %v", ErrReviewLogScoreRange, err)
	}

	_, err = NewReviewLog(card, card.UserID, "A", ValidationOutcome{Score: 1, Method: "vibes"}, RatingEasy, 1, card.CreatedAt)
	if !errors.Is(err, ErrInvalidValidationMethod) {
		t.Errorf("Expected %v, got %v", ErrInvalidValidationMethod, err)
	}

	_, err = NewReviewLog(card, card.UserID, "A", outcome, Rating(7), 1, card.CreatedAt)
	if !errors.Is(err, ErrInvalidRating) {
		t.Errorf("Expected %v, got %v", ErrInvalidRating, err)
	}
}
