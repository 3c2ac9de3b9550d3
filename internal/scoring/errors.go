package scoring

import "errors"

// Common errors returned by scoring adapters
var (
	// ErrInvalidResponse is returned when a model response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from scoring model")

	// ErrContentBlocked is returned when the model refuses the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by scoring model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during scoring call")

	// ErrInvalidConfig is returned when an adapter configuration is invalid
	ErrInvalidConfig = errors.New("invalid scoring configuration")

	// ErrEmptyInput is returned when there is no text to score
	ErrEmptyInput = errors.New("scoring input cannot be empty")
)
