package store

import "context"

// Stores groups the stores bound to a single unit of work.
type Stores struct {
	Cards      CardStore
	ReviewLogs ReviewLogStore
	Decks      DeckStore
	Stats      StatsStore
}

// Transactor runs fn with stores that commit together or not at all. A
// non-nil error from fn, a panic, or a canceled ctx rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
