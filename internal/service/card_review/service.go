package card_review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
)

// Outcome is what a completed review reports back to the caller.
type Outcome struct {
	CardID        uuid.UUID               `json:"card_id"`
	Score         float64                 `json:"score"`
	Method        domain.ValidationMethod `json:"validation_method"`
	Rating        domain.Rating           `json:"rating"`
	ScheduledDays int                     `json:"scheduled_days"`
	State         domain.SchedulingState  `json:"fsrs_state"`
}

// Service reviews flashcards from free-text answers.
type Service interface {
	// Review validates answer against the card's expected answer, turns the
	// score into a rating, advances the card's schedule and records the
	// review.
	//
	// The state update and the review log are written in one transaction;
	// either both land or neither does. A reviewed event is published after
	// the commit, and a publish failure does not fail the review.
	//
	// Returns:
	//   - (*Outcome, nil): the review was persisted
	//   - (nil, ErrCardNotFound): no card with cardID exists; nothing is written
	//   - (nil, ErrValidatorUnavailable): a scoring tier failed
	//   - (nil, ErrPersistenceConflict): concurrent updates outlasted the retries
	//   - (nil, ErrSerialization): the stored or computed state is invalid
	//   - (nil, ctx.Err()): the caller gave up; nothing is written
	Review(ctx context.Context, cardID, userID uuid.UUID, answer string) (*Outcome, error)
}

// Common error types for Service
var (
	// ErrCardNotFound indicates that the requested card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrValidatorUnavailable indicates that the answer could not be scored.
	ErrValidatorUnavailable = errors.New("answer validator unavailable")

	// ErrPersistenceConflict indicates that the card kept changing underneath
	// the review until the retry budget ran out.
	ErrPersistenceConflict = errors.New("card was modified concurrently")

	// ErrSerialization indicates a scheduling state that could not be read
	// or written.
	ErrSerialization = errors.New("scheduling state could not be serialized")

	// ErrInvalidReview indicates a malformed review request.
	ErrInvalidReview = errors.New("invalid review request")
)

// ServiceError wraps errors from the review service with context.
type ServiceError struct {
	Operation string // The operation that failed (e.g., "load_card", "persist")
	Message   string // A descriptive message about the error
	Err       error  // The underlying error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("review %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("review %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewReviewError creates a new ServiceError.
func NewReviewError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
