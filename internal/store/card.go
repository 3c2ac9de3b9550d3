package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
)

// CardStore defines the interface for card data persistence.
type CardStore interface {
	// Create saves a new card. Returns ErrInvalidEntity for invalid cards and
	// ErrDuplicate when the ID is taken.
	Create(ctx context.Context, card *domain.Card) error

	// CreateMany saves cards in order. It should be run inside a transaction
	// so a failing card does not leave a partial import behind.
	CreateMany(ctx context.Context, cards []*domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist and ErrSerialization
	// if its stored scheduling state is malformed.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListByUser returns a user's cards, oldest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error)

	// ListByDeck returns the cards of a deck, oldest first.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)

	// UpdateState replaces the card's scheduling state if its stored version
	// equals expectedVersion, and returns the new version.
	// Returns ErrCardNotFound if the card does not exist and
	// ErrVersionConflict if the version moved on.
	UpdateState(ctx context.Context, id uuid.UUID, expectedVersion int64, state domain.SchedulingState) (int64, error)

	// Delete removes a card together with its review log.
	// Returns ErrCardNotFound if the card does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// SetEmbedding stores the expected-answer embedding. It does not bump the
	// version since the scheduling state is untouched.
	SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}
