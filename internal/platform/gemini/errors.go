package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/phrazzld/scry-tutor/internal/scoring"
	"google.golang.org/genai"
)

// ErrNilModels is returned when an adapter is built without a models client.
var ErrNilModels = errors.New("gemini models client cannot be nil")

// wrapAPIError tags an API error with the matching scoring sentinel. Errors
// tagged scoring.ErrTransientFailure are retried.
func wrapAPIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", scoring.ErrTransientFailure, err)
		case apiErr.Code >= http.StatusBadRequest:
			return fmt.Errorf("%w: api status %d: %w", scoring.ErrInvalidConfig, apiErr.Code, err)
		}
	}

	// Network errors and unknown failures are worth another try.
	return fmt.Errorf("%w: %w", scoring.ErrTransientFailure, err)
}
