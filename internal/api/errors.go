package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-tutor/internal/api/shared"
	"github.com/phrazzld/scry-tutor/internal/service"
	"github.com/phrazzld/scry-tutor/internal/service/card_review"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, card_review.ErrCardNotFound),
		errors.Is(err, service.ErrCardNotFound),
		errors.Is(err, service.ErrDeckNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	// Bad request errors
	case errors.Is(err, card_review.ErrInvalidReview),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidImport),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, shared.ErrEmptyBody):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrImportTooLarge),
		errors.Is(err, shared.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge

	// Scoring backend down
	case errors.Is(err, card_review.ErrValidatorUnavailable):
		return http.StatusServiceUnavailable

	// Conflict errors
	case errors.Is(err, card_review.ErrPersistenceConflict),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Default: internal server error, including ErrSerialization
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, card_review.ErrCardNotFound),
		errors.Is(err, service.ErrCardNotFound):
		return "Card not found"

	case errors.Is(err, service.ErrDeckNotFound):
		return "Deck not found"

	case errors.Is(err, service.ErrNotOwned):
		return "Resource belongs to another user"

	case errors.Is(err, card_review.ErrInvalidReview):
		return "Invalid review request"

	case errors.Is(err, service.ErrInvalidImport):
		return "Import file could not be read"

	case errors.Is(err, service.ErrImportTooLarge),
		errors.Is(err, shared.ErrBodyTooLarge):
		return "Request body exceeds the size limit"

	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"

	case errors.Is(err, card_review.ErrValidatorUnavailable):
		return "Answer validation is temporarily unavailable"

	case errors.Is(err, card_review.ErrPersistenceConflict):
		return "Card was updated concurrently, please retry"

	case errors.Is(err, card_review.ErrSerialization):
		return "Card state could not be processed"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator errors into a short message naming
// the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "uuid":
		return "must be a UUID"
	case "min":
		return "too short"
	case "max":
		return "too long"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and safe message for err. A non-empty
// fallback replaces the generic message for unmapped server errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
