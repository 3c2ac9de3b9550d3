package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/events"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// DeckStatsReport is a deck's aggregates together with its name.
type DeckStatsReport struct {
	DeckName string
	domain.DeckStats
}

// StatsService reads review aggregates.
type StatsService interface {
	// UserStats returns the user's aggregates, all zero before any review.
	UserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)

	// DeckStats returns a deck's aggregates, or ErrDeckNotFound.
	DeckStats(ctx context.Context, deckID uuid.UUID) (*DeckStatsReport, error)
}

// StatsHandler keeps user and deck aggregates up to date from card events.
// It implements both events.EventHandler and StatsService.
type StatsHandler struct {
	stats      store.StatsStore
	decks      store.DeckStore
	transactor store.Transactor
	logger     *slog.Logger
}

var (
	_ events.EventHandler = (*StatsHandler)(nil)
	_ StatsService        = (*StatsHandler)(nil)
)

// NewStatsHandler creates a StatsHandler. It panics on nil stores.
func NewStatsHandler(stores store.Stores, transactor store.Transactor, log *slog.Logger) *StatsHandler {
	if stores.Stats == nil {
		panic("stats store cannot be nil")
	}
	if stores.Decks == nil {
		panic("deck store cannot be nil")
	}
	if transactor == nil {
		panic("transactor cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &StatsHandler{
		stats:      stores.Stats,
		decks:      stores.Decks,
		transactor: transactor,
		logger:     log.With(slog.String("component", "stats_handler")),
	}
}

// HandleEvent implements events.EventHandler. Event types other than
// CardReviewed, CardCreated and CardDeleted are ignored.
func (h *StatsHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	switch event.Type {
	case events.CardReviewed:
		var p events.CardReviewedPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		return h.recordReview(ctx, p)
	case events.CardCreated:
		var p events.CardCreatedPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		return h.recordCreated(ctx, p)
	case events.CardDeleted:
		var p events.CardDeletedPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		return h.recordDeleted(ctx, p)
	default:
		return nil
	}
}

func (h *StatsHandler) recordReview(ctx context.Context, p events.CardReviewedPayload) error {
	correct := domain.IsCorrectScore(p.Score)
	err := h.transactor.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if err := st.Stats.RecordUserReview(ctx, p.UserID, correct, p.ReviewedAt); err != nil {
			return err
		}
		if p.DeckID == nil {
			return nil
		}
		return st.Stats.RecordDeckReview(ctx, *p.DeckID, p.UserID, correct, p.ReviewedAt)
	})
	if err != nil {
		return fmt.Errorf("record review of card %s: %w", p.CardID, err)
	}

	logger.FromContextOrDefault(ctx, h.logger).DebugContext(ctx, "review recorded in stats",
		slog.String("card_id", p.CardID.String()),
		slog.Bool("correct", correct))
	return nil
}

func (h *StatsHandler) recordCreated(ctx context.Context, p events.CardCreatedPayload) error {
	if p.DeckID == nil || len(p.CardIDs) == 0 {
		return nil
	}
	if err := h.stats.AddDeckCards(ctx, *p.DeckID, p.UserID, len(p.CardIDs)); err != nil {
		return fmt.Errorf("add %d cards to deck %s: %w", len(p.CardIDs), *p.DeckID, err)
	}
	return nil
}

func (h *StatsHandler) recordDeleted(ctx context.Context, p events.CardDeletedPayload) error {
	if p.DeckID == nil {
		return nil
	}
	if err := h.stats.AddDeckCards(ctx, *p.DeckID, p.UserID, -1); err != nil {
		return fmt.Errorf("remove card %s from deck %s: %w", p.CardID, *p.DeckID, err)
	}
	return nil
}

// UserStats implements StatsService.
func (h *StatsHandler) UserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	stats, err := h.stats.GetUserStats(ctx, userID)
	if err != nil {
		return nil, NewCardServiceError("user_stats", "failed to load stats", err)
	}
	return stats, nil
}

// DeckStats implements StatsService.
func (h *StatsHandler) DeckStats(ctx context.Context, deckID uuid.UUID) (*DeckStatsReport, error) {
	deck, err := h.decks.GetByID(ctx, deckID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, NewCardServiceError("deck_stats", "deck does not exist", fmt.Errorf("%w: %w", ErrDeckNotFound, err))
		}
		return nil, NewCardServiceError("deck_stats", "failed to load deck", err)
	}
	stats, err := h.stats.GetDeckStats(ctx, deckID)
	if err != nil {
		return nil, NewCardServiceError("deck_stats", "failed to load stats", err)
	}
	return &DeckStatsReport{DeckName: deck.Name, DeckStats: *stats}, nil
}
