package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardUserIDEmpty is returned when a card's user ID is empty or nil.
	ErrCardUserIDEmpty = errors.New("card user ID cannot be empty")

	// ErrCardQuestionEmpty is returned when a card has no question text.
	ErrCardQuestionEmpty = errors.New("card question cannot be empty")

	// ErrCardAnswerEmpty is returned when a card has no expected answer.
	ErrCardAnswerEmpty = errors.New("card answer cannot be empty")
)

// Card is a flashcard owned by a user. Question and Answer are immutable from
// the review pipeline's point of view; only State is replaced on review, and
// every replacement bumps Version.
type Card struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	DeckID          *uuid.UUID      `json:"deck_id,omitempty"`
	Question        string          `json:"question"`
	Answer          string          `json:"answer"`
	AnswerEmbedding []float32       `json:"-"`
	State           SchedulingState `json:"fsrs_state"`
	Version         int64           `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewCard creates a new Card in the New phase with a fresh ID.
// Question and answer are trimmed; an optional deck may be attached.
func NewCard(userID uuid.UUID, deckID *uuid.UUID, question, answer string) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:        uuid.New(),
		UserID:    userID,
		DeckID:    deckID,
		Question:  strings.TrimSpace(question),
		Answer:    strings.TrimSpace(answer),
		State:     NewSchedulingState(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}
	if c.UserID == uuid.Nil {
		return ErrCardUserIDEmpty
	}
	if strings.TrimSpace(c.Question) == "" {
		return ErrCardQuestionEmpty
	}
	if strings.TrimSpace(c.Answer) == "" {
		return ErrCardAnswerEmpty
	}
	if err := c.State.Validate(); err != nil {
		return fmt.Errorf("card %s: %w", c.ID, err)
	}
	return nil
}

// HasEmbedding reports whether the expected answer has a stored embedding.
func (c *Card) HasEmbedding() bool {
	return len(c.AnswerEmbedding) > 0
}

// InDeck reports whether the card belongs to a deck.
func (c *Card) InDeck() bool {
	return c.DeckID != nil && *c.DeckID != uuid.Nil
}
