package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-tutor/internal/api/shared"
	"github.com/phrazzld/scry-tutor/internal/service"
)

// StatsHandler serves review aggregates.
type StatsHandler struct {
	stats  service.StatsService
	logger *slog.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(stats service.StatsService, logger *slog.Logger) *StatsHandler {
	if stats == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("stats service cannot be nil for StatsHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StatsHandler")
	}
	return &StatsHandler{
		stats:  stats,
		logger: logger.With(slog.String("component", "stats_handler")),
	}
}

// UserStats handles GET /users/{user_id}/stats.
func (h *StatsHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlePathUUID(w, r, "user_id", h.logger)
	if !ok {
		return
	}

	stats, err := h.stats.UserStats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get user stats")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userStatsToResponse(stats))
}

// DeckStats handles GET /decks/{deck_id}/stats.
func (h *StatsHandler) DeckStats(w http.ResponseWriter, r *http.Request) {
	deckID, ok := handlePathUUID(w, r, "deck_id", h.logger)
	if !ok {
		return
	}

	report, err := h.stats.DeckStats(r.Context(), deckID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get deck stats")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, deckStatsToResponse(report))
}
