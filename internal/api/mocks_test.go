package api

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/service"
	"github.com/phrazzld/scry-tutor/internal/service/card_review"
	"github.com/stretchr/testify/mock"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Review(ctx context.Context, cardID, userID uuid.UUID, answer string) (*card_review.Outcome, error) {
	args := m.Called(ctx, cardID, userID, answer)
	if out := args.Get(0); out != nil {
		return out.(*card_review.Outcome), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCardService struct {
	mock.Mock
}

func (m *MockCardService) CreateCard(
	ctx context.Context,
	userID uuid.UUID,
	deckID *uuid.UUID,
	question, answer string,
) (*domain.Card, error) {
	args := m.Called(ctx, userID, deckID, question, answer)
	if c := args.Get(0); c != nil {
		return c.(*domain.Card), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardService) GetCard(ctx context.Context, cardID uuid.UUID) (*domain.Card, error) {
	args := m.Called(ctx, cardID)
	if c := args.Get(0); c != nil {
		return c.(*domain.Card), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardService) ListReviews(ctx context.Context, cardID uuid.UUID, limit int) ([]*domain.ReviewLog, error) {
	args := m.Called(ctx, cardID, limit)
	if l := args.Get(0); l != nil {
		return l.([]*domain.ReviewLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardService) CreateDeck(
	ctx context.Context,
	userID uuid.UUID,
	name string,
	description *string,
) (*domain.Deck, error) {
	args := m.Called(ctx, userID, name, description)
	if d := args.Get(0); d != nil {
		return d.(*domain.Deck), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardService) ListDecks(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error) {
	args := m.Called(ctx, userID)
	if d := args.Get(0); d != nil {
		return d.([]*domain.Deck), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardService) ListUserCards(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error) {
	args := m.Called(ctx, userID)
	if c := args.Get(0); c != nil {
		return c.([]*domain.Card), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardService) ListDeckCards(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	args := m.Called(ctx, deckID)
	if c := args.Get(0); c != nil {
		return c.([]*domain.Card), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardService) DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error {
	return m.Called(ctx, userID, cardID).Error(0)
}

func (m *MockCardService) DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error {
	return m.Called(ctx, userID, deckID).Error(0)
}

func (m *MockCardService) ImportTSV(ctx context.Context, deckID uuid.UUID, data []byte) (*service.ImportResult, error) {
	args := m.Called(ctx, deckID, data)
	if r := args.Get(0); r != nil {
		return r.(*service.ImportResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCardService) ImportAnki(ctx context.Context, userID uuid.UUID, data []byte) (*service.AnkiImportResult, error) {
	args := m.Called(ctx, userID, data)
	if r := args.Get(0); r != nil {
		return r.(*service.AnkiImportResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) UserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	args := m.Called(ctx, userID)
	if s := args.Get(0); s != nil {
		return s.(*domain.UserStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStatsService) DeckStats(ctx context.Context, deckID uuid.UUID) (*service.DeckStatsReport, error) {
	args := m.Called(ctx, deckID)
	if r := args.Get(0); r != nil {
		return r.(*service.DeckStatsReport), args.Error(1)
	}
	return nil, args.Error(1)
}

var (
	_ card_review.Service  = (*MockReviewService)(nil)
	_ service.CardService  = (*MockCardService)(nil)
	_ service.StatsService = (*MockStatsService)(nil)
)
