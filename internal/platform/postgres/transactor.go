package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/scry-tutor/internal/store"
)

// Stores bundles the PostgreSQL stores over one connection pool.
type Stores struct {
	db         *sql.DB
	Cards      *PostgresCardStore
	ReviewLogs *PostgresReviewLogStore
	Decks      *PostgresDeckStore
	Stats      *PostgresStatsStore
}

var _ store.Transactor = (*Stores)(nil)

// NewStores creates every store over db.
func NewStores(db *sql.DB, logger *slog.Logger) *Stores {
	if db == nil {
		panic("db cannot be nil")
	}
	return &Stores{
		db:         db,
		Cards:      NewPostgresCardStore(db, logger),
		ReviewLogs: NewPostgresReviewLogStore(db, logger),
		Decks:      NewPostgresDeckStore(db, logger),
		Stats:      NewPostgresStatsStore(db, logger),
	}
}

// Stores returns the non-transactional stores.
func (s *Stores) Stores() store.Stores {
	return store.Stores{
		Cards:      s.Cards,
		ReviewLogs: s.ReviewLogs,
		Decks:      s.Decks,
		Stats:      s.Stats,
	}
}

// WithinTx implements store.Transactor on top of store.RunInTransaction at
// the server's default isolation level. Lost updates are prevented by the
// card version check rather than by isolation.
func (s *Stores) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Stores) error) error {
	return store.RunInTransaction(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, store.Stores{
			Cards:      s.Cards.WithTx(tx),
			ReviewLogs: s.ReviewLogs.WithTx(tx),
			Decks:      s.Decks.WithTx(tx),
			Stats:      s.Stats.WithTx(tx),
		})
	})
}
