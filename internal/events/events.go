package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
)

// Event types
const (
	// CardReviewed is published after a review has been persisted.
	CardReviewed = "card.reviewed"

	// CardCreated is published after one or more cards have been created.
	CardCreated = "card.created"

	// CardDeleted is published after a card has been deleted.
	CardDeleted = "card.deleted"
)

// Event is a domain event with a JSON payload.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the event type constants
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// CardReviewedPayload is the payload of a CardReviewed event.
type CardReviewedPayload struct {
	CardID     uuid.UUID               `json:"card_id"`
	UserID     uuid.UUID               `json:"user_id"`
	DeckID     *uuid.UUID              `json:"deck_id,omitempty"`
	Score      float64                 `json:"score"`
	Rating     domain.Rating           `json:"rating"`
	Method     domain.ValidationMethod `json:"validation_method"`
	ReviewedAt time.Time               `json:"reviewed_at"`
}

// CardCreatedPayload is the payload of a CardCreated event. Bulk imports
// publish one event carrying every new card.
type CardCreatedPayload struct {
	UserID  uuid.UUID   `json:"user_id"`
	DeckID  *uuid.UUID  `json:"deck_id,omitempty"`
	CardIDs []uuid.UUID `json:"card_ids"`
}

// CardDeletedPayload is the payload of a CardDeleted event. DeckID is the
// deck the card belonged to when it was deleted.
type CardDeletedPayload struct {
	CardID uuid.UUID  `json:"card_id"`
	UserID uuid.UUID  `json:"user_id"`
	DeckID *uuid.UUID `json:"deck_id,omitempty"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Handlers ignore event types they do not know.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}
