// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidRating is returned when a rating is outside Again..Easy.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrInvalidSchedulingState is returned when a scheduling state violates its bounds.
	ErrInvalidSchedulingState = errors.New("invalid scheduling state")

	// ErrInvalidValidationMethod is returned when a validation method is unknown.
	ErrInvalidValidationMethod = errors.New("invalid validation method")
)
