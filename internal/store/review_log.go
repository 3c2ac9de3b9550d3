package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
)

// ReviewLogStore persists the append-only review audit trail. There is no
// update or delete.
type ReviewLogStore interface {
	// Append writes one audit record.
	Append(ctx context.Context, log *domain.ReviewLog) error

	// ListByCard returns a card's audit records, newest first. A limit <= 0
	// returns everything.
	ListByCard(ctx context.Context, cardID uuid.UUID, limit int) ([]*domain.ReviewLog, error)
}
