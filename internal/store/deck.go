package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
)

// DeckStore defines the interface for deck persistence.
type DeckStore interface {
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error)

	// Delete removes a deck and its statistics. The deck's cards are kept
	// and no longer belong to any deck.
	// Returns ErrDeckNotFound if the deck does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
