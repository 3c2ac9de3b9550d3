package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/api/shared"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/service"
)

// CardHandler handles card and deck HTTP requests, including imports.
type CardHandler struct {
	cards  service.CardService
	logger *slog.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cards service.CardService, logger *slog.Logger) *CardHandler {
	if cards == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("card service cannot be nil for CardHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CardHandler")
	}
	return &CardHandler{
		cards:  cards,
		logger: logger.With(slog.String("component", "card_handler")),
	}
}

// CreateCard handles POST /users/{user_id}/cards.
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlePathUUID(w, r, "user_id", h.logger)
	if !ok {
		return
	}

	var req CreateCardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var deckID *uuid.UUID
	if req.DeckID != nil {
		id := uuid.MustParse(*req.DeckID)
		deckID = &id
	}

	card, err := h.cards.CreateCard(r.Context(), userID, deckID, req.Question, req.Answer)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create card")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("card created",
		slog.String("card_id", card.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, cardToResponse(card))
}

// GetCard handles GET /cards/{id}.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	cardID, ok := handlePathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	card, err := h.cards.GetCard(r.Context(), cardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get card")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// ListUserCards handles GET /users/{user_id}/cards.
func (h *CardHandler) ListUserCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlePathUUID(w, r, "user_id", h.logger)
	if !ok {
		return
	}

	cards, err := h.cards.ListUserCards(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list cards")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardsToResponse(cards))
}

// ListDeckCards handles GET /decks/{deck_id}/cards.
func (h *CardHandler) ListDeckCards(w http.ResponseWriter, r *http.Request) {
	deckID, ok := handlePathUUID(w, r, "deck_id", h.logger)
	if !ok {
		return
	}

	cards, err := h.cards.ListDeckCards(r.Context(), deckID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list cards")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardsToResponse(cards))
}

// DeleteCard handles DELETE /users/{user_id}/cards/{card_id}.
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlePathUUID(w, r, "user_id", h.logger)
	if !ok {
		return
	}
	cardID, ok := handlePathUUID(w, r, "card_id", h.logger)
	if !ok {
		return
	}

	if err := h.cards.DeleteCard(r.Context(), userID, cardID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete card")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListReviews handles GET /cards/{id}/reviews. An optional limit query
// parameter caps the number of entries.
func (h *CardHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	cardID, ok := handlePathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	logs, err := h.cards.ListReviews(r.Context(), cardID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list reviews")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, reviewLogsToResponse(logs))
}

// CreateDeck handles POST /users/{user_id}/decks.
func (h *CardHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlePathUUID(w, r, "user_id", h.logger)
	if !ok {
		return
	}

	var req CreateDeckRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deck, err := h.cards.CreateDeck(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create deck")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, deckToResponse(deck))
}

// ListDecks handles GET /users/{user_id}/decks.
func (h *CardHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlePathUUID(w, r, "user_id", h.logger)
	if !ok {
		return
	}

	decks, err := h.cards.ListDecks(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list decks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, decksToResponse(decks))
}

// DeleteDeck handles DELETE /users/{user_id}/decks/{deck_id}.
func (h *CardHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlePathUUID(w, r, "user_id", h.logger)
	if !ok {
		return
	}
	deckID, ok := handlePathUUID(w, r, "deck_id", h.logger)
	if !ok {
		return
	}

	if err := h.cards.DeleteDeck(r.Context(), userID, deckID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete deck")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ImportTSV handles POST /decks/{deck_id}/import/tsv. The body is raw
// tab-separated text.
func (h *CardHandler) ImportTSV(w http.ResponseWriter, r *http.Request) {
	deckID, ok := handlePathUUID(w, r, "deck_id", h.logger)
	if !ok {
		return
	}

	data, err := shared.ReadBody(r, service.MaxImportBytes)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read import")
		return
	}

	result, err := h.cards.ImportTSV(r.Context(), deckID, data)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to import cards")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// ImportAnki handles POST /users/{user_id}/import/anki. The body is a raw
// .apkg archive; a new deck is created for its notes.
func (h *CardHandler) ImportAnki(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlePathUUID(w, r, "user_id", h.logger)
	if !ok {
		return
	}

	data, err := shared.ReadBody(r, service.MaxImportBytes)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read import")
		return
	}

	result, err := h.cards.ImportAnki(r.Context(), userID, data)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to import Anki package")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("anki package imported",
		slog.String("deck_id", result.DeckID.String()),
		slog.Int("cards_imported", result.CardsImported),
		slog.Int("cards_skipped", result.CardsSkipped))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
