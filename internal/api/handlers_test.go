package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/api/shared"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/service"
	"github.com/phrazzld/scry-tutor/internal/service/card_review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type handlerFixture struct {
	reviews *MockReviewService
	cards   *MockCardService
	stats   *MockStatsService
	router  chi.Router
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		reviews: new(MockReviewService),
		cards:   new(MockCardService),
		stats:   new(MockStatsService),
	}
	reviewHandler := NewReviewHandler(f.reviews, testLogger)
	cardHandler := NewCardHandler(f.cards, testLogger)
	statsHandler := NewStatsHandler(f.stats, testLogger)

	r := chi.NewRouter()
	r.Post("/reviews", reviewHandler.SubmitReview)
	r.Post("/users/{user_id}/cards", cardHandler.CreateCard)
	r.Get("/cards/{id}", cardHandler.GetCard)
	r.Get("/cards/{id}/reviews", cardHandler.ListReviews)
	r.Post("/users/{user_id}/decks", cardHandler.CreateDeck)
	r.Get("/users/{user_id}/decks", cardHandler.ListDecks)
	r.Get("/users/{user_id}/cards", cardHandler.ListUserCards)
	r.Delete("/users/{user_id}/cards/{card_id}", cardHandler.DeleteCard)
	r.Delete("/users/{user_id}/decks/{deck_id}", cardHandler.DeleteDeck)
	r.Get("/decks/{deck_id}/cards", cardHandler.ListDeckCards)
	r.Post("/decks/{deck_id}/import/tsv", cardHandler.ImportTSV)
	r.Post("/users/{user_id}/import/anki", cardHandler.ImportAnki)
	r.Get("/users/{user_id}/stats", statsHandler.UserStats)
	r.Get("/decks/{deck_id}/stats", statsHandler.DeckStats)
	f.router = r

	t.Cleanup(func() {
		f.reviews.AssertExpectations(t)
		f.cards.AssertExpectations(t)
		f.stats.AssertExpectations(t)
	})
	return f
}

func (f *handlerFixture) do(method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body shared.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestSubmitReview_Success(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	cardID, userID := uuid.New(), uuid.New()
	f.reviews.On("Review", mock.Anything, cardID, userID, "Paris").Return(&card_review.Outcome{
		CardID:        cardID,
		Score:         1.0,
		Method:        domain.MethodExact,
		Rating:        domain.RatingEasy,
		ScheduledDays: 16,
	}, nil)

	body := fmt.Sprintf(`{"card_id":%q,"user_id":%q,"user_answer":"Paris"}`, cardID, userID)
	rec := f.do(http.MethodPost, "/reviews", []byte(body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, cardID.String(), resp["card_id"])
	assert.InDelta(t, 1.0, resp["ai_score"], 1e-9)
	assert.InDelta(t, 4, resp["fsrs_rating"], 1e-9)
	assert.Equal(t, "exact", resp["validation_method"])
	assert.InDelta(t, 16, resp["next_review_in_days"], 1e-9)
}

func TestSubmitReview_BadRequests(t *testing.T) {
	t.Parallel()

	id := uuid.New().String()
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty body", ``, "Request body is required"},
		{"malformed json", `{"card_id":`, "Invalid request format"},
		{"unknown field", fmt.Sprintf(`{"card_id":%q,"user_id":%q,"user_answer":"x","grade":3}`, id, id), "Invalid request format"},
		{"missing answer", fmt.Sprintf(`{"card_id":%q,"user_id":%q}`, id, id), "Invalid user_answer: required field"},
		{"bad card id", fmt.Sprintf(`{"card_id":"nope","user_id":%q,"user_answer":"x"}`, id), "Invalid card_id: must be a UUID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newHandlerFixture(t)

			rec := f.do(http.MethodPost, "/reviews", []byte(tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decodeError(t, rec))
		})
	}
}

func TestSubmitReview_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("%w: gone", card_review.ErrCardNotFound), http.StatusNotFound},
		{"validator unavailable", card_review.ErrValidatorUnavailable, http.StatusServiceUnavailable},
		{"conflict", card_review.ErrPersistenceConflict, http.StatusConflict},
		{"serialization", card_review.ErrSerialization, http.StatusInternalServerError},
		{"invalid", card_review.ErrInvalidReview, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newHandlerFixture(t)

			f.reviews.On("Review", mock.Anything, mock.Anything, mock.Anything, "x").Return(nil, tt.err)
			body := fmt.Sprintf(`{"card_id":%q,"user_id":%q,"user_answer":"x"}`, uuid.New(), uuid.New())

			rec := f.do(http.MethodPost, "/reviews", []byte(body))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestCreateCard(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	userID, deckID := uuid.New(), uuid.New()
	card, err := domain.NewCard(userID, &deckID, "Capital of France?", "Paris")
	require.NoError(t, err)
	card.AnswerEmbedding = []float32{1, 0}

	f.cards.On("CreateCard", mock.Anything, userID, &deckID, "Capital of France?", "Paris").Return(card, nil)

	body := fmt.Sprintf(`{"question":"Capital of France?","answer":"Paris","deck_id":%q}`, deckID)
	rec := f.do(http.MethodPost, "/users/"+userID.String()+"/cards", []byte(body))

	require.Equal(t, http.StatusCreated, rec.Code)
	raw := rec.Body.String()
	assert.Contains(t, raw, `"fsrs_state"`)
	assert.NotContains(t, raw, "answer_embedding")

	var resp CardResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	assert.Equal(t, card.ID, resp.ID)
	assert.Equal(t, &deckID, resp.DeckID)
	assert.True(t, resp.HasEmbedding)
	assert.Equal(t, domain.PhaseNew, resp.FSRSState.Phase)
}

func TestCreateCard_Errors(t *testing.T) {
	t.Parallel()

	t.Run("invalid user id", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)
		rec := f.do(http.MethodPost, "/users/not-a-uuid/cards", []byte(`{"question":"q","answer":"a"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid user_id", decodeError(t, rec))
	})

	t.Run("missing question", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)
		rec := f.do(http.MethodPost, "/users/"+uuid.NewString()+"/cards", []byte(`{"answer":"a"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("deck owned by someone else", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)
		f.cards.On("CreateCard", mock.Anything, mock.Anything, mock.Anything, "q", "a").
			Return(nil, service.ErrNotOwned)
		body := fmt.Sprintf(`{"question":"q","answer":"a","deck_id":%q}`, uuid.New())
		rec := f.do(http.MethodPost, "/users/"+uuid.NewString()+"/cards", []byte(body))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("internal error is not leaked", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)
		f.cards.On("CreateCard", mock.Anything, mock.Anything, mock.Anything, "q", "a").
			Return(nil, errors.New("dial postgres://scry:hunter22@db/scry: refused"))
		rec := f.do(http.MethodPost, "/users/"+uuid.NewString()+"/cards", []byte(`{"question":"q","answer":"a"}`))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		msg := decodeError(t, rec)
		assert.Equal(t, "Failed to create card", msg)
		assert.NotContains(t, msg, "hunter22")
	})
}

func TestGetCardAndReviews(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	card, err := domain.NewCard(uuid.New(), nil, "q", "a")
	require.NoError(t, err)
	missing := uuid.New()

	f.cards.On("GetCard", mock.Anything, card.ID).Return(card, nil)
	f.cards.On("GetCard", mock.Anything, missing).Return(nil, service.ErrCardNotFound)

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	logs := []*domain.ReviewLog{{
		ID: uuid.New(), CardID: card.ID, UserAnswer: "a", Score: 1,
		Method: domain.MethodExact, Rating: domain.RatingEasy, ScheduledDays: 16, CreatedAt: now,
	}}
	f.cards.On("ListReviews", mock.Anything, card.ID, 0).Return(logs, nil)
	f.cards.On("ListReviews", mock.Anything, card.ID, 5).Return(logs, nil)

	rec := f.do(http.MethodGet, "/cards/"+card.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/cards/"+missing.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Card not found", decodeError(t, rec))

	rec = f.do(http.MethodGet, "/cards/"+card.ID.String()+"/reviews", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []ReviewLogResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, 4, entries[0].FSRSRating)
	assert.Equal(t, "exact", entries[0].ValidationMethod)

	rec = f.do(http.MethodGet, "/cards/"+card.ID.String()+"/reviews?limit=5", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/cards/"+card.ID.String()+"/reviews?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecks(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	userID := uuid.New()
	desc := "verbs"
	deck, err := domain.NewDeck(userID, "Spanish", &desc)
	require.NoError(t, err)

	f.cards.On("CreateDeck", mock.Anything, userID, "Spanish", &desc).Return(deck, nil)
	f.cards.On("ListDecks", mock.Anything, userID).Return([]*domain.Deck{deck}, nil)

	rec := f.do(http.MethodPost, "/users/"+userID.String()+"/decks", []byte(`{"name":"Spanish","description":"verbs"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created DeckResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, deck.ID, created.ID)

	rec = f.do(http.MethodGet, "/users/"+userID.String()+"/decks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []DeckResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
	assert.Len(t, listed, 1)

	rec = f.do(http.MethodPost, "/users/"+userID.String()+"/decks", []byte(`{"description":"no name"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCards(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	userID := uuid.New()
	deckID := uuid.New()
	card, err := domain.NewCard(userID, &deckID, "uno", "one")
	require.NoError(t, err)

	f.cards.On("ListUserCards", mock.Anything, userID).Return([]*domain.Card{card}, nil)
	f.cards.On("ListDeckCards", mock.Anything, deckID).Return([]*domain.Card(nil), nil)
	missing := uuid.New()
	f.cards.On("ListDeckCards", mock.Anything, missing).Return(nil, service.ErrDeckNotFound)

	rec := f.do(http.MethodGet, "/users/"+userID.String()+"/cards", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cards []CardResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cards))
	require.Len(t, cards, 1)
	assert.Equal(t, card.ID, cards[0].ID)

	rec = f.do(http.MethodGet, "/decks/"+deckID.String()+"/cards", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = f.do(http.MethodGet, "/decks/"+missing.String()+"/cards", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Deck not found", decodeError(t, rec))

	rec = f.do(http.MethodGet, "/decks/not-a-uuid/cards", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteCardAndDeck(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	userID := uuid.New()
	cardID := uuid.New()
	deckID := uuid.New()
	othersCard := uuid.New()

	f.cards.On("DeleteCard", mock.Anything, userID, cardID).Return(nil)
	f.cards.On("DeleteCard", mock.Anything, userID, othersCard).
		Return(fmt.Errorf("delete: %w", service.ErrNotOwned))
	f.cards.On("DeleteDeck", mock.Anything, userID, deckID).Return(nil)

	rec := f.do(http.MethodDelete, "/users/"+userID.String()+"/cards/"+cardID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = f.do(http.MethodDelete, "/users/"+userID.String()+"/cards/"+othersCard.String(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Resource belongs to another user", decodeError(t, rec))

	rec = f.do(http.MethodDelete, "/users/"+userID.String()+"/decks/"+deckID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodDelete, "/users/"+userID.String()+"/decks/nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid deck_id", decodeError(t, rec))
}

func TestImports(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	deckID, userID := uuid.New(), uuid.New()
	tsv := []byte("hola\thello\n\nadios\n")
	f.cards.On("ImportTSV", mock.Anything, deckID, tsv).
		Return(&service.ImportResult{DeckID: deckID, CardsImported: 1, CardsSkipped: 1}, nil)
	f.cards.On("ImportAnki", mock.Anything, userID, []byte("not a zip")).
		Return(nil, fmt.Errorf("%w: not a zip archive", service.ErrInvalidImport))

	rec := f.do(http.MethodPost, "/decks/"+deckID.String()+"/import/tsv", tsv)
	require.Equal(t, http.StatusOK, rec.Code)
	var result service.ImportResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 1, result.CardsImported)
	assert.Equal(t, 1, result.CardsSkipped)

	rec = f.do(http.MethodPost, "/users/"+userID.String()+"/import/anki", []byte("not a zip"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Import file could not be read", decodeError(t, rec))
}

func TestImports_BodyTooLarge(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	big := strings.Repeat("a", service.MaxImportBytes+1)
	rec := f.do(http.MethodPost, "/decks/"+uuid.NewString()+"/import/tsv", []byte(big))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestStats(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	userID, deckID := uuid.New(), uuid.New()
	last := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)

	userStats := &domain.UserStats{UserID: userID}
	userStats.TotalReviews = 4
	userStats.CorrectReviews = 3
	userStats.DaysStudied = 2
	userStats.LastActiveDate = &last
	f.stats.On("UserStats", mock.Anything, userID).Return(userStats, nil)

	report := &service.DeckStatsReport{DeckName: "Spanish"}
	report.DeckID = deckID
	report.TotalCards = 10
	f.stats.On("DeckStats", mock.Anything, deckID).Return(report, nil)

	missing := uuid.New()
	f.stats.On("DeckStats", mock.Anything, missing).Return(nil, service.ErrDeckNotFound)

	rec := f.do(http.MethodGet, "/users/"+userID.String()+"/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var us UserStatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&us))
	assert.Equal(t, 4, us.TotalReviews)
	assert.InDelta(t, 75.0, us.AccuracyPercentage, 1e-9)
	require.NotNil(t, us.LastActiveDate)
	assert.Equal(t, "2026-03-14", *us.LastActiveDate)

	rec = f.do(http.MethodGet, "/decks/"+deckID.String()+"/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ds DeckStatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ds))
	assert.Equal(t, "Spanish", ds.DeckName)
	assert.Equal(t, 10, ds.TotalCards)
	assert.Zero(t, ds.AccuracyPercentage)
	assert.Nil(t, ds.LastActiveDate)

	rec = f.do(http.MethodGet, "/decks/"+missing.String()+"/stats", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Deck not found", decodeError(t, rec))
}

func TestHandlerConstructors_PanicOnNil(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewReviewHandler(nil, testLogger) })
	assert.Panics(t, func() { NewReviewHandler(new(MockReviewService), nil) })
	assert.Panics(t, func() { NewCardHandler(nil, testLogger) })
	assert.Panics(t, func() { NewStatsHandler(nil, testLogger) })
}
