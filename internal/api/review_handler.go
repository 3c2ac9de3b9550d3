package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/api/shared"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/service/card_review"
)

// ReviewHandler handles answer submissions.
type ReviewHandler struct {
	reviews card_review.Service
	logger  *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviews card_review.Service, logger *slog.Logger) *ReviewHandler {
	if reviews == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("review service cannot be nil for ReviewHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}
	return &ReviewHandler{
		reviews: reviews,
		logger:  logger.With(slog.String("component", "review_handler")),
	}
}

// SubmitReview handles POST /reviews. The answer is scored, the card
// rescheduled, and the outcome returned.
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req SubmitReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	// The validator has already checked both IDs.
	cardID := uuid.MustParse(req.CardID)
	userID := uuid.MustParse(req.UserID)

	outcome, err := h.reviews.Review(r.Context(), cardID, userID, req.UserAnswer)
	if err != nil {
		log.Debug("review failed",
			slog.String("card_id", cardID.String()),
			slog.String("error", err.Error()))
		HandleAPIError(w, r, err, "Failed to submit review")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, reviewToResponse(outcome))
}
