package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/store"
)

type deckStore struct {
	s  *Store
	tx *memTx
}

var _ store.DeckStore = (*deckStore)(nil)

func (d *deckStore) Create(ctx context.Context, deck *domain.Deck) error {
	if err := deck.Validate(); err != nil {
		return invalid("deck", err)
	}
	return d.s.run(d.tx, func() error {
		if _, exists := d.s.decks[deck.ID]; exists {
			return store.ErrDuplicate
		}
		cp := *deck
		d.s.decks[deck.ID] = &cp
		d.s.deckOrder = append(d.s.deckOrder, deck.ID)

		id := deck.ID
		d.tx.onRollback(func() {
			delete(d.s.decks, id)
			d.s.deckOrder = d.s.deckOrder[:len(d.s.deckOrder)-1]
		})
		return nil
	})
}

func (d *deckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	var out *domain.Deck
	err := d.s.run(d.tx, func() error {
		deck, ok := d.s.decks[id]
		if !ok {
			return store.ErrDeckNotFound
		}
		cp := *deck
		out = &cp
		return nil
	})
	return out, err
}

func (d *deckStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error) {
	var out []*domain.Deck
	err := d.s.run(d.tx, func() error {
		for _, id := range d.s.deckOrder {
			if deck := d.s.decks[id]; deck.UserID == userID {
				cp := *deck
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

func (d *deckStore) Delete(ctx context.Context, id uuid.UUID) error {
	return d.s.run(d.tx, func() error {
		deck, ok := d.s.decks[id]
		if !ok {
			return store.ErrDeckNotFound
		}
		pos := slices.Index(d.s.deckOrder, id)
		stats, hadStats := d.s.deckStats[id]

		var detached []*domain.Card
		for _, card := range d.s.cards {
			if card.DeckID != nil && *card.DeckID == id {
				card.DeckID = nil
				detached = append(detached, card)
			}
		}
		delete(d.s.decks, id)
		delete(d.s.deckStats, id)
		d.s.deckOrder = slices.Delete(d.s.deckOrder, pos, pos+1)

		d.tx.onRollback(func() {
			d.s.decks[id] = deck
			d.s.deckOrder = slices.Insert(d.s.deckOrder, pos, id)
			if hadStats {
				d.s.deckStats[id] = stats
			}
			for _, card := range detached {
				deckID := id
				card.DeckID = &deckID
			}
		})
		return nil
	})
}
