package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/scry-tutor/internal/domain"
)

// Common errors
var (
	// ErrInvalidRating is returned for ratings outside Again..Easy.
	ErrInvalidRating = fmt.Errorf("srs: %w", domain.ErrInvalidRating)

	// ErrNilParams is returned when a service is built without parameters.
	ErrNilParams = errors.New("srs params cannot be nil")
)

// Service defines the interface for scheduling operations
type Service interface {
	// Transition computes the scheduling state that follows a review with the
	// given rating at time now. The input state is not modified.
	Transition(
		state domain.SchedulingState,
		rating domain.Rating,
		now time.Time,
	) (domain.SchedulingState, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduling service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduling service with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		return nil, ErrNilParams
	}
	return &defaultService{
		params: params,
	}, nil
}

// Transition implements the Service interface
func (s *defaultService) Transition(
	state domain.SchedulingState,
	rating domain.Rating,
	now time.Time,
) (domain.SchedulingState, error) {
	if !rating.IsValid() {
		return domain.SchedulingState{}, fmt.Errorf("%w: %d", ErrInvalidRating, rating)
	}

	return calculateNextState(state, rating, now, s.params), nil
}
