package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/store"
)

type cardStore struct {
	s  *Store
	tx *memTx
}

var _ store.CardStore = (*cardStore)(nil)

func (c *cardStore) Create(ctx context.Context, card *domain.Card) error {
	return c.s.run(c.tx, func() error {
		return c.insert(card)
	})
}

func (c *cardStore) CreateMany(ctx context.Context, cards []*domain.Card) error {
	return c.s.run(c.tx, func() error {
		// Validate everything up front so a bad card leaves nothing behind
		// even outside a transaction.
		seen := make(map[uuid.UUID]struct{}, len(cards))
		for _, card := range cards {
			if err := card.Validate(); err != nil {
				return invalid("card", err)
			}
			if _, dup := seen[card.ID]; dup {
				return store.ErrDuplicate
			}
			if _, dup := c.s.cards[card.ID]; dup {
				return store.ErrDuplicate
			}
			seen[card.ID] = struct{}{}
		}
		for _, card := range cards {
			if err := c.insert(card); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *cardStore) insert(card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return invalid("card", err)
	}
	if _, exists := c.s.cards[card.ID]; exists {
		return store.ErrDuplicate
	}
	c.s.cards[card.ID] = cloneCard(card)
	c.s.cardOrder = append(c.s.cardOrder, card.ID)

	id := card.ID
	c.tx.onRollback(func() {
		delete(c.s.cards, id)
		c.s.cardOrder = c.s.cardOrder[:len(c.s.cardOrder)-1]
	})
	return nil
}

func (c *cardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	var out *domain.Card
	err := c.s.run(c.tx, func() error {
		card, ok := c.s.cards[id]
		if !ok {
			return store.ErrCardNotFound
		}
		out = cloneCard(card)
		return nil
	})
	return out, err
}

func (c *cardStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error) {
	return c.list(func(card *domain.Card) bool { return card.UserID == userID })
}

func (c *cardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	return c.list(func(card *domain.Card) bool { return card.DeckID != nil && *card.DeckID == deckID })
}

func (c *cardStore) list(match func(*domain.Card) bool) ([]*domain.Card, error) {
	var out []*domain.Card
	err := c.s.run(c.tx, func() error {
		for _, id := range c.s.cardOrder {
			if card := c.s.cards[id]; match(card) {
				out = append(out, cloneCard(card))
			}
		}
		return nil
	})
	return out, err
}

func (c *cardStore) UpdateState(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion int64,
	state domain.SchedulingState,
) (int64, error) {
	if err := state.Validate(); err != nil {
		return 0, store.NewStoreError("card", "update_state", "invalid scheduling state",
			fmt.Errorf("%w: %w", store.ErrSerialization, err))
	}

	var newVersion int64
	err := c.s.run(c.tx, func() error {
		card, ok := c.s.cards[id]
		if !ok {
			return store.ErrCardNotFound
		}
		if card.Version != expectedVersion {
			return store.ErrVersionConflict
		}

		prevState, prevVersion, prevUpdated := card.State, card.Version, card.UpdatedAt
		card.State = cloneState(state)
		card.Version++
		card.UpdatedAt = time.Now().UTC()
		newVersion = card.Version

		c.tx.onRollback(func() {
			card.State, card.Version, card.UpdatedAt = prevState, prevVersion, prevUpdated
		})
		return nil
	})
	return newVersion, err
}

func (c *cardStore) Delete(ctx context.Context, id uuid.UUID) error {
	return c.s.run(c.tx, func() error {
		card, ok := c.s.cards[id]
		if !ok {
			return store.ErrCardNotFound
		}
		pos := slices.Index(c.s.cardOrder, id)
		logs, hadLogs := c.s.logs[id]

		delete(c.s.cards, id)
		delete(c.s.logs, id)
		c.s.cardOrder = slices.Delete(c.s.cardOrder, pos, pos+1)

		c.tx.onRollback(func() {
			c.s.cards[id] = card
			c.s.cardOrder = slices.Insert(c.s.cardOrder, pos, id)
			if hadLogs {
				c.s.logs[id] = logs
			}
		})
		return nil
	})
}

func (c *cardStore) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	return c.s.run(c.tx, func() error {
		card, ok := c.s.cards[id]
		if !ok {
			return store.ErrCardNotFound
		}
		prev := card.AnswerEmbedding
		card.AnswerEmbedding = append([]float32(nil), embedding...)
		c.tx.onRollback(func() { card.AnswerEmbedding = prev })
		return nil
	})
}
