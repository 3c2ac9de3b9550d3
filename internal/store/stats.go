package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
)

// StatsStore maintains precomputed review statistics.
type StatsStore interface {
	// RecordUserReview folds one review into the user's statistics, creating
	// them on first use.
	RecordUserReview(ctx context.Context, userID uuid.UUID, correct bool, at time.Time) error

	// RecordDeckReview folds one review into the deck's statistics.
	RecordDeckReview(ctx context.Context, deckID, userID uuid.UUID, correct bool, at time.Time) error

	// AddDeckCards adjusts the deck's card count by n.
	AddDeckCards(ctx context.Context, deckID, userID uuid.UUID, n int) error

	// GetUserStats returns the user's statistics, or zero statistics when the
	// user has never reviewed.
	GetUserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)

	// GetDeckStats returns the deck's statistics, or zero statistics when the
	// deck has no activity yet.
	GetDeckStats(ctx context.Context, deckID uuid.UUID) (*domain.DeckStats, error)
}
