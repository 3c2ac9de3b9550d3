package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/store"
)

type reviewLogStore struct {
	s  *Store
	tx *memTx
}

var _ store.ReviewLogStore = (*reviewLogStore)(nil)

func (r *reviewLogStore) Append(ctx context.Context, log *domain.ReviewLog) error {
	if err := log.Validate(); err != nil {
		return invalid("review_log", err)
	}
	return r.s.run(r.tx, func() error {
		if _, ok := r.s.cards[log.CardID]; !ok {
			return store.NewStoreError("review_log", "append", "card does not exist", store.ErrInvalidEntity)
		}
		cp := *log
		r.s.logs[log.CardID] = append(r.s.logs[log.CardID], &cp)

		cardID := log.CardID
		r.tx.onRollback(func() {
			entries := r.s.logs[cardID]
			r.s.logs[cardID] = entries[:len(entries)-1]
		})
		return nil
	})
}

func (r *reviewLogStore) ListByCard(ctx context.Context, cardID uuid.UUID, limit int) ([]*domain.ReviewLog, error) {
	var out []*domain.ReviewLog
	err := r.s.run(r.tx, func() error {
		entries := r.s.logs[cardID]
		for i := len(entries) - 1; i >= 0; i-- {
			if limit > 0 && len(out) == limit {
				break
			}
			cp := *entries[i]
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}
