package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/events"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/scoring"
	"github.com/phrazzld/scry-tutor/internal/store"
	"github.com/phrazzld/scry-tutor/internal/task"
)

// defaultReviewHistoryLimit bounds ListReviews when the caller passes no limit.
const defaultReviewHistoryLimit = 100

// CardService provides card and deck operations
type CardService interface {
	// CreateCard creates a card, attaching the answer embedding when the
	// embedder is available. An embedding failure does not fail the call:
	// the card is stored without one and a backfill task is queued.
	CreateCard(ctx context.Context, userID uuid.UUID, deckID *uuid.UUID, question, answer string) (*domain.Card, error)

	// GetCard retrieves a card by its ID
	GetCard(ctx context.Context, cardID uuid.UUID) (*domain.Card, error)

	// ListUserCards returns the user's cards, oldest first.
	ListUserCards(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error)

	// ListDeckCards returns the cards of a deck, oldest first, or
	// ErrDeckNotFound.
	ListDeckCards(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)

	// DeleteCard deletes a card owned by userID together with its review
	// history. Returns ErrNotOwned for another user's card.
	DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error

	// ListReviews returns a card's review log, newest first. A limit of zero
	// or less uses the default limit.
	ListReviews(ctx context.Context, cardID uuid.UUID, limit int) ([]*domain.ReviewLog, error)

	// CreateDeck creates an empty deck for the user.
	CreateDeck(ctx context.Context, userID uuid.UUID, name string, description *string) (*domain.Deck, error)

	// ListDecks returns the user's decks, oldest first.
	ListDecks(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error)

	// DeleteDeck deletes a deck owned by userID. Its cards are kept without
	// a deck.
	DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error

	// ImportTSV adds one card per "front<TAB>back" line of data to an
	// existing deck.
	ImportTSV(ctx context.Context, deckID uuid.UUID, data []byte) (*ImportResult, error)

	// ImportAnki creates a new deck from an Anki .apkg package.
	ImportAnki(ctx context.Context, userID uuid.UUID, data []byte) (*AnkiImportResult, error)
}

// CardServiceDeps are the collaborators of the card service. Embedder and
// Queue are optional: without an embedder cards are stored unembedded, and
// without a queue no backfill is scheduled.
type CardServiceDeps struct {
	Stores     store.Stores
	Transactor store.Transactor
	Embedder   scoring.Embedder
	Queue      task.TaskQueueWriter
	Emitter    events.EventEmitter
}

// cardServiceImpl implements the CardService interface
type cardServiceImpl struct {
	stores     store.Stores
	transactor store.Transactor
	embedder   scoring.Embedder
	queue      task.TaskQueueWriter
	emitter    events.EventEmitter
	backfill   *embeddingBackfill
	logger     *slog.Logger
}

var _ CardService = (*cardServiceImpl)(nil)

// NewCardService creates a new CardService
// It returns an error if any of the required dependencies are nil.
func NewCardService(deps CardServiceDeps, log *slog.Logger) (CardService, error) {
	if deps.Stores.Cards == nil || deps.Stores.Decks == nil || deps.Stores.ReviewLogs == nil {
		return nil, fmt.Errorf("%w: card, deck and review log stores are required", ErrInvalidInput)
	}
	if deps.Transactor == nil {
		return nil, fmt.Errorf("%w: transactor cannot be nil", ErrInvalidInput)
	}
	if deps.Emitter == nil {
		return nil, fmt.Errorf("%w: emitter cannot be nil", ErrInvalidInput)
	}

	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "card_service"))

	svc := &cardServiceImpl{
		stores:     deps.Stores,
		transactor: deps.Transactor,
		embedder:   deps.Embedder,
		queue:      deps.Queue,
		emitter:    deps.Emitter,
		logger:     log,
	}
	if deps.Embedder != nil {
		svc.backfill = &embeddingBackfill{
			embedder: deps.Embedder,
			cards:    deps.Stores.Cards,
			logger:   log.With(slog.String("task", task.TaskTypeEmbeddingBackfill)),
		}
	}
	return svc, nil
}

// CreateCard implements CardService.CreateCard
func (s *cardServiceImpl) CreateCard(
	ctx context.Context,
	userID uuid.UUID,
	deckID *uuid.UUID,
	question, answer string,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := domain.NewCard(userID, deckID, question, answer)
	if err != nil {
		return nil, NewCardServiceError("create_card", "invalid card", fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}

	if card.InDeck() {
		if _, err := s.ownedDeck(ctx, *card.DeckID, userID); err != nil {
			return nil, NewCardServiceError("create_card", "deck check failed", err)
		}
	}

	needsBackfill := false
	if s.embedder != nil {
		vectors, err := s.embedder.Embed(ctx, card.Answer)
		if err == nil && len(vectors) != 1 {
			err = fmt.Errorf("%w: got %d embeddings for 1 text", scoring.ErrInvalidResponse, len(vectors))
		}
		switch {
		case err == nil:
			card.AnswerEmbedding = vectors[0]
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			needsBackfill = true
			log.WarnContext(ctx, "failed to embed answer, creating card without embedding",
				slog.String("card_id", card.ID.String()),
				slog.String("error", err.Error()))
		}
	}

	if err := s.stores.Cards.Create(ctx, card); err != nil {
		return nil, NewCardServiceError("create_card", "failed to save card", s.mapStoreError(err))
	}

	log.InfoContext(ctx, "card created",
		slog.String("card_id", card.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Bool("embedded", card.HasEmbedding()))

	if needsBackfill {
		s.scheduleBackfill(ctx, []*domain.Card{card})
	}
	s.publishCreated(ctx, userID, card.DeckID, []*domain.Card{card})
	return card, nil
}

// GetCard implements CardService.GetCard
func (s *cardServiceImpl) GetCard(ctx context.Context, cardID uuid.UUID) (*domain.Card, error) {
	card, err := s.stores.Cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, NewCardServiceError("get_card", "failed to retrieve card", s.mapStoreError(err))
	}
	return card, nil
}

// ListUserCards implements CardService.ListUserCards
func (s *cardServiceImpl) ListUserCards(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error) {
	cards, err := s.stores.Cards.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewCardServiceError("list_user_cards", "failed to list cards", s.mapStoreError(err))
	}
	return cards, nil
}

// ListDeckCards implements CardService.ListDeckCards
func (s *cardServiceImpl) ListDeckCards(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	if _, err := s.stores.Decks.GetByID(ctx, deckID); err != nil {
		return nil, NewCardServiceError("list_deck_cards", "failed to load deck", s.mapStoreError(err))
	}
	cards, err := s.stores.Cards.ListByDeck(ctx, deckID)
	if err != nil {
		return nil, NewCardServiceError("list_deck_cards", "failed to list cards", s.mapStoreError(err))
	}
	return cards, nil
}

// DeleteCard implements CardService.DeleteCard
func (s *cardServiceImpl) DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error {
	var deckID *uuid.UUID
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		card, err := st.Cards.GetByID(ctx, cardID)
		if err != nil {
			return err
		}
		if card.UserID != userID {
			return ErrNotOwned
		}
		deckID = card.DeckID
		return st.Cards.Delete(ctx, cardID)
	})
	if err != nil {
		return NewCardServiceError("delete_card", "failed to delete card", s.mapStoreError(err))
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	log.InfoContext(ctx, "card deleted",
		slog.String("card_id", cardID.String()),
		slog.String("user_id", userID.String()))

	event, err := events.NewEvent(events.CardDeleted, events.CardDeletedPayload{
		CardID: cardID,
		UserID: userID,
		DeckID: deckID,
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to build card deleted event", slog.String("error", err.Error()))
		return nil
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.WarnContext(ctx, "failed to publish card deleted event",
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
	}
	return nil
}

// ListReviews implements CardService.ListReviews
func (s *cardServiceImpl) ListReviews(ctx context.Context, cardID uuid.UUID, limit int) ([]*domain.ReviewLog, error) {
	if _, err := s.GetCard(ctx, cardID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultReviewHistoryLimit
	}
	logs, err := s.stores.ReviewLogs.ListByCard(ctx, cardID, limit)
	if err != nil {
		return nil, NewCardServiceError("list_reviews", "failed to list reviews", s.mapStoreError(err))
	}
	return logs, nil
}

// CreateDeck implements CardService.CreateDeck
func (s *cardServiceImpl) CreateDeck(
	ctx context.Context,
	userID uuid.UUID,
	name string,
	description *string,
) (*domain.Deck, error) {
	deck, err := domain.NewDeck(userID, name, description)
	if err != nil {
		return nil, NewCardServiceError("create_deck", "invalid deck", fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	if err := s.stores.Decks.Create(ctx, deck); err != nil {
		return nil, NewCardServiceError("create_deck", "failed to save deck", s.mapStoreError(err))
	}

	logger.FromContextOrDefault(ctx, s.logger).InfoContext(ctx, "deck created",
		slog.String("deck_id", deck.ID.String()),
		slog.String("user_id", userID.String()))
	return deck, nil
}

// ListDecks implements CardService.ListDecks
func (s *cardServiceImpl) ListDecks(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error) {
	decks, err := s.stores.Decks.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewCardServiceError("list_decks", "failed to list decks", s.mapStoreError(err))
	}
	return decks, nil
}

// DeleteDeck implements CardService.DeleteDeck
func (s *cardServiceImpl) DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error {
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		deck, err := st.Decks.GetByID(ctx, deckID)
		if err != nil {
			return err
		}
		if deck.UserID != userID {
			return ErrNotOwned
		}
		return st.Decks.Delete(ctx, deckID)
	})
	if err != nil {
		return NewCardServiceError("delete_deck", "failed to delete deck", s.mapStoreError(err))
	}

	logger.FromContextOrDefault(ctx, s.logger).InfoContext(ctx, "deck deleted",
		slog.String("deck_id", deckID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// ownedDeck loads a deck and checks that userID owns it.
func (s *cardServiceImpl) ownedDeck(ctx context.Context, deckID, userID uuid.UUID) (*domain.Deck, error) {
	deck, err := s.stores.Decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, s.mapStoreError(err)
	}
	if deck.UserID != userID {
		return nil, ErrNotOwned
	}
	return deck, nil
}

// scheduleBackfill queues an embedding task for cards stored without one.
// A rejected task is only logged.
func (s *cardServiceImpl) scheduleBackfill(ctx context.Context, cards []*domain.Card) {
	if s.backfill == nil || s.queue == nil || len(cards) == 0 {
		return
	}
	items := make([]backfillItem, len(cards))
	for i, c := range cards {
		items[i] = backfillItem{CardID: c.ID, Answer: c.Answer}
	}
	if err := s.queue.Enqueue(s.backfill.newTask(items)); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).WarnContext(ctx, "failed to queue embedding backfill",
			slog.Int("cards", len(cards)),
			slog.String("error", err.Error()))
	}
}

// publishCreated announces new cards. Failures are logged and dropped.
func (s *cardServiceImpl) publishCreated(ctx context.Context, userID uuid.UUID, deckID *uuid.UUID, cards []*domain.Card) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	ids := make([]uuid.UUID, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	event, err := events.NewEvent(events.CardCreated, events.CardCreatedPayload{
		UserID:  userID,
		DeckID:  deckID,
		CardIDs: ids,
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to build card created event", slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.WarnContext(ctx, "failed to publish card created event",
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
	}
}

func (s *cardServiceImpl) mapStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrCardNotFound):
		return fmt.Errorf("%w: %w", ErrCardNotFound, err)
	case errors.Is(err, store.ErrDeckNotFound):
		return fmt.Errorf("%w: %w", ErrDeckNotFound, err)
	case errors.Is(err, store.ErrInvalidEntity):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return err
	}
}
