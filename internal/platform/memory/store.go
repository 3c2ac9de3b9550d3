package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// Store holds every entity in memory.
type Store struct {
	mu        sync.Mutex
	cards     map[uuid.UUID]*domain.Card
	cardOrder []uuid.UUID
	logs      map[uuid.UUID][]*domain.ReviewLog
	decks     map[uuid.UUID]*domain.Deck
	deckOrder []uuid.UUID
	userStats map[uuid.UUID]*domain.UserStats
	deckStats map[uuid.UUID]*domain.DeckStats
}

var _ store.Transactor = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		cards:     make(map[uuid.UUID]*domain.Card),
		logs:      make(map[uuid.UUID][]*domain.ReviewLog),
		decks:     make(map[uuid.UUID]*domain.Deck),
		userStats: make(map[uuid.UUID]*domain.UserStats),
		deckStats: make(map[uuid.UUID]*domain.DeckStats),
	}
}

// memTx journals undo steps for one WithinTx call. A nil *memTx means the
// caller is outside a transaction and must take the lock itself.
type memTx struct {
	undo []func()
}

func (tx *memTx) onRollback(f func()) {
	if tx != nil {
		tx.undo = append(tx.undo, f)
	}
}

func (tx *memTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

// run executes fn under the store lock unless tx already holds it.
func (s *Store) run(tx *memTx, fn func() error) error {
	if tx == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn()
}

// Stores returns non-transactional stores backed by s.
func (s *Store) Stores() store.Stores {
	return s.stores(nil)
}

// Cards returns a CardStore backed by s.
func (s *Store) Cards() store.CardStore { return &cardStore{s: s} }

// ReviewLogs returns a ReviewLogStore backed by s.
func (s *Store) ReviewLogs() store.ReviewLogStore { return &reviewLogStore{s: s} }

// Decks returns a DeckStore backed by s.
func (s *Store) Decks() store.DeckStore { return &deckStore{s: s} }

// Stats returns a StatsStore backed by s.
func (s *Store) Stats() store.StatsStore { return &statsStore{s: s} }

func (s *Store) stores(tx *memTx) store.Stores {
	return store.Stores{
		Cards:      &cardStore{s: s, tx: tx},
		ReviewLogs: &reviewLogStore{s: s, tx: tx},
		Decks:      &deckStore{s: s, tx: tx},
		Stats:      &statsStore{s: s, tx: tx},
	}
}

// WithinTx implements store.Transactor. The stores passed to fn must not be
// used after fn returns.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()

	if err = fn(ctx, s.stores(tx)); err == nil {
		err = ctx.Err()
	}
	if err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func cloneCard(c *domain.Card) *domain.Card {
	cp := *c
	if c.DeckID != nil {
		id := *c.DeckID
		cp.DeckID = &id
	}
	if c.AnswerEmbedding != nil {
		cp.AnswerEmbedding = append([]float32(nil), c.AnswerEmbedding...)
	}
	cp.State = cloneState(c.State)
	return &cp
}

func cloneState(s domain.SchedulingState) domain.SchedulingState {
	if s.LastReview != nil {
		t := *s.LastReview
		s.LastReview = &t
	}
	return s
}

func invalid(entity string, err error) error {
	return store.NewStoreError(entity, "validate", "invalid entity", fmt.Errorf("%w: %w", store.ErrInvalidEntity, err))
}
