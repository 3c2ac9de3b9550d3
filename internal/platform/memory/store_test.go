package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/platform/memory"
	"github.com/phrazzld/scry-tutor/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCard(t *testing.T, userID uuid.UUID, deckID *uuid.UUID) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(userID, deckID, "What is hola?", "hello")
	require.NoError(t, err)
	return card
}

func reviewedState(now time.Time) domain.SchedulingState {
	return domain.SchedulingState{
		Stability:     2.5,
		Difficulty:    5,
		ScheduledDays: 6,
		Reps:          1,
		Phase:         domain.PhaseLearning,
		LastReview:    &now,
	}
}

func TestCardStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.New()
	cards := s.Cards()
	userID := uuid.New()

	card := newCard(t, userID, nil)
	require.NoError(t, cards.Create(ctx, card))
	assert.ErrorIs(t, cards.Create(ctx, card), store.ErrDuplicate)

	got, err := cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, card.Question, got.Question)

	// Returned cards are copies
	got.Question = "mutated"
	again, err := cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, "What is hola?", again.Question)

	_, err = cards.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrCardNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func TestCardStoreUpdateStateCompareAndSwap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.New()
	cards := s.Cards()
	card := newCard(t, uuid.New(), nil)
	require.NoError(t, cards.Create(ctx, card))

	now := time.Now().UTC()
	v2, err := cards.UpdateState(ctx, card.ID, card.Version, reviewedState(now))
	require.NoError(t, err)
	assert.Equal(t, card.Version+1, v2)

	_, err = cards.UpdateState(ctx, card.ID, card.Version, reviewedState(now))
	assert.ErrorIs(t, err, store.ErrVersionConflict, "stale version must conflict")

	_, err = cards.UpdateState(ctx, uuid.New(), 1, reviewedState(now))
	assert.ErrorIs(t, err, store.ErrCardNotFound)

	_, err = cards.UpdateState(ctx, card.ID, v2, domain.SchedulingState{Phase: domain.PhaseReview})
	assert.ErrorIs(t, err, store.ErrSerialization)

	got, err := cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.State.Reps)
	assert.Equal(t, v2, got.Version)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.New()
	card := newCard(t, uuid.New(), nil)
	require.NoError(t, s.Cards().Create(ctx, card))

	boom := errors.New("append failed")
	err := s.WithinTx(ctx, func(ctx context.Context, tx store.Stores) error {
		if _, err := tx.Cards.UpdateState(ctx, card.ID, card.Version, reviewedState(time.Now())); err != nil {
			return err
		}
		log, err := domain.NewReviewLog(card, card.UserID, "hello",
			domain.ValidationOutcome{Score: 1, Method: domain.MethodExact}, domain.RatingEasy, 16, time.Now())
		require.NoError(t, err)
		if err := tx.ReviewLogs.Append(ctx, log); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Cards().GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, got.State.IsNew(), "state update must be rolled back")
	assert.Equal(t, card.Version, got.Version)

	logs, err := s.ReviewLogs().ListByCard(ctx, card.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, logs, "audit record must be rolled back")
}

func TestWithinTxRollsBackOnCancel(t *testing.T) {
	t.Parallel()
	s := memory.New()
	card := newCard(t, uuid.New(), nil)
	require.NoError(t, s.Cards().Create(context.Background(), card))

	ctx, cancel := context.WithCancel(context.Background())
	err := s.WithinTx(ctx, func(ctx context.Context, tx store.Stores) error {
		_, err := tx.Cards.UpdateState(ctx, card.ID, card.Version, reviewedState(time.Now()))
		cancel()
		return err
	})
	assert.ErrorIs(t, err, context.Canceled)

	got, err := s.Cards().GetByID(context.Background(), card.ID)
	require.NoError(t, err)
	assert.True(t, got.State.IsNew())
}

func TestWithinTxCommits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.New()
	userID := uuid.New()
	deck, err := domain.NewDeck(userID, "Spanish", nil)
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(ctx context.Context, tx store.Stores) error {
		if err := tx.Decks.Create(ctx, deck); err != nil {
			return err
		}
		return tx.Cards.CreateMany(ctx, []*domain.Card{newCard(t, userID, &deck.ID), newCard(t, userID, &deck.ID)})
	})
	require.NoError(t, err)

	inDeck, err := s.Cards().ListByDeck(ctx, deck.ID)
	require.NoError(t, err)
	assert.Len(t, inDeck, 2)

	decks, err := s.Decks().ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, decks, 1)
}

func TestCreateManyIsAllOrNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.New()
	userID := uuid.New()
	good := newCard(t, userID, nil)
	bad := newCard(t, userID, nil)
	bad.Answer = ""

	err := s.Cards().CreateMany(ctx, []*domain.Card{good, bad})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	all, err := s.Cards().ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReviewLogsNewestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.New()
	card := newCard(t, uuid.New(), nil)
	require.NoError(t, s.Cards().Create(ctx, card))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		log, err := domain.NewReviewLog(card, card.UserID, "x",
			domain.ValidationOutcome{Score: float64(i) / 10, Method: domain.MethodGenerative},
			domain.RatingAgain, 1, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, s.ReviewLogs().Append(ctx, log))
	}

	logs, err := s.ReviewLogs().ListByCard(ctx, card.ID, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.True(t, logs[0].CreatedAt.After(logs[1].CreatedAt))

	orphan := *logs[0]
	orphan.CardID = uuid.New()
	assert.ErrorIs(t, s.ReviewLogs().Append(ctx, &orphan), store.ErrInvalidEntity)
}

func TestStatsStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.New()
	stats := s.Stats()
	userID := uuid.New()
	deck, err := domain.NewDeck(userID, "Biology", nil)
	require.NoError(t, err)
	require.NoError(t, s.Decks().Create(ctx, deck))

	empty, err := stats.GetUserStats(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalReviews)

	day := time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC)
	require.NoError(t, stats.RecordUserReview(ctx, userID, true, day))
	require.NoError(t, stats.RecordUserReview(ctx, userID, false, day.Add(time.Hour)))
	require.NoError(t, stats.RecordDeckReview(ctx, deck.ID, userID, true, day))
	require.NoError(t, stats.AddDeckCards(ctx, deck.ID, userID, 3))

	us, err := stats.GetUserStats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, us.TotalReviews)
	assert.Equal(t, 1, us.CorrectReviews)
	assert.Equal(t, 1, us.DaysStudied)
	assert.Equal(t, 50.0, us.Accuracy())

	ds, err := stats.GetDeckStats(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.TotalCards)
	assert.Equal(t, 1, ds.TotalReviews)

	_, err = stats.GetDeckStats(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrDeckNotFound)
}

func TestDeleteRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.New()
	userID := uuid.New()

	deck, err := domain.NewDeck(userID, "Spanish", nil)
	require.NoError(t, err)
	require.NoError(t, s.Decks().Create(ctx, deck))
	first := newCard(t, userID, &deck.ID)
	second := newCard(t, userID, &deck.ID)
	require.NoError(t, s.Cards().CreateMany(ctx, []*domain.Card{first, second}))
	require.NoError(t, s.Stats().AddDeckCards(ctx, deck.ID, userID, 2))

	boom := errors.New("abort")
	err = s.WithinTx(ctx, func(ctx context.Context, tx store.Stores) error {
		if err := tx.Cards.Delete(ctx, first.ID); err != nil {
			return err
		}
		if err := tx.Decks.Delete(ctx, deck.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	cards, err := s.Cards().ListByDeck(ctx, deck.ID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, first.ID, cards[0].ID, "order is restored")
	ds, err := s.Stats().GetDeckStats(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.TotalCards)
}

func TestDeleteDeckDetachesCards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.New()
	userID := uuid.New()

	deck, err := domain.NewDeck(userID, "Spanish", nil)
	require.NoError(t, err)
	require.NoError(t, s.Decks().Create(ctx, deck))
	card := newCard(t, userID, &deck.ID)
	require.NoError(t, s.Cards().Create(ctx, card))

	require.NoError(t, s.Decks().Delete(ctx, deck.ID))
	assert.ErrorIs(t, s.Decks().Delete(ctx, deck.ID), store.ErrDeckNotFound)

	got, err := s.Cards().GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DeckID)

	_, err = s.Stats().GetDeckStats(ctx, deck.ID)
	assert.ErrorIs(t, err, store.ErrDeckNotFound)
	assert.ErrorIs(t, s.Stats().AddDeckCards(ctx, deck.ID, userID, 1), store.ErrInvalidEntity)

	require.NoError(t, s.Cards().Delete(ctx, card.ID))
	assert.ErrorIs(t, s.Cards().Delete(ctx, card.ID), store.ErrCardNotFound)
}
