package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/store"
)

type statsStore struct {
	s  *Store
	tx *memTx
}

var _ store.StatsStore = (*statsStore)(nil)

func (st *statsStore) RecordUserReview(ctx context.Context, userID uuid.UUID, correct bool, at time.Time) error {
	return st.s.run(st.tx, func() error {
		stats, ok := st.s.userStats[userID]
		if !ok {
			stats = &domain.UserStats{UserID: userID}
			st.s.userStats[userID] = stats
		}
		prev := *stats
		stats.Record(correct, at)
		stats.UpdatedAt = time.Now().UTC()
		st.tx.onRollback(func() {
			if ok {
				*stats = prev
			} else {
				delete(st.s.userStats, userID)
			}
		})
		return nil
	})
}

func (st *statsStore) RecordDeckReview(ctx context.Context, deckID, userID uuid.UUID, correct bool, at time.Time) error {
	return st.s.run(st.tx, func() error {
		stats, created, err := st.deck(deckID, userID)
		if err != nil {
			return err
		}
		prev := *stats
		stats.Record(correct, at)
		stats.UpdatedAt = time.Now().UTC()
		st.restoreDeck(deckID, stats, prev, created)
		return nil
	})
}

func (st *statsStore) AddDeckCards(ctx context.Context, deckID, userID uuid.UUID, n int) error {
	return st.s.run(st.tx, func() error {
		stats, created, err := st.deck(deckID, userID)
		if err != nil {
			return err
		}
		prev := *stats
		stats.TotalCards += n
		if stats.TotalCards < 0 {
			stats.TotalCards = 0
		}
		stats.UpdatedAt = time.Now().UTC()
		st.restoreDeck(deckID, stats, prev, created)
		return nil
	})
}

// deck returns the deck's stats row, creating it when missing. Stats for a
// deck that no longer exists are rejected.
func (st *statsStore) deck(deckID, userID uuid.UUID) (*domain.DeckStats, bool, error) {
	if _, ok := st.s.decks[deckID]; !ok {
		return nil, false, store.NewStoreError("deck_stats", "upsert", "deck does not exist", store.ErrInvalidEntity)
	}
	stats, ok := st.s.deckStats[deckID]
	if !ok {
		stats = &domain.DeckStats{DeckID: deckID, UserID: userID}
		st.s.deckStats[deckID] = stats
	}
	return stats, !ok, nil
}

func (st *statsStore) restoreDeck(deckID uuid.UUID, stats *domain.DeckStats, prev domain.DeckStats, created bool) {
	st.tx.onRollback(func() {
		if created {
			delete(st.s.deckStats, deckID)
			return
		}
		*stats = prev
	})
}

func (st *statsStore) GetUserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	out := &domain.UserStats{UserID: userID}
	err := st.s.run(st.tx, func() error {
		if stats, ok := st.s.userStats[userID]; ok {
			*out = *stats
		}
		return nil
	})
	return out, err
}

func (st *statsStore) GetDeckStats(ctx context.Context, deckID uuid.UUID) (*domain.DeckStats, error) {
	out := &domain.DeckStats{DeckID: deckID}
	err := st.s.run(st.tx, func() error {
		if stats, ok := st.s.deckStats[deckID]; ok {
			*out = *stats
			return nil
		}
		if deck, ok := st.s.decks[deckID]; ok {
			out.UserID = deck.UserID
			return nil
		}
		return store.ErrDeckNotFound
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
