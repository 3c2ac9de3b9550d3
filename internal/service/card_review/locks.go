package card_review

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// cardLocks serializes reviews of the same card within this process.
// Entries are reference counted and removed once no review holds or waits
// for them.
type cardLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*cardLock
}

type cardLock struct {
	ch      chan struct{}
	waiters int
}

func newCardLocks() *cardLocks {
	return &cardLocks{locks: make(map[uuid.UUID]*cardLock)}
}

// acquire blocks until the lock for id is held or ctx is done. The returned
// release func must be called exactly once on success.
func (l *cardLocks) acquire(ctx context.Context, id uuid.UUID) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &cardLock{ch: make(chan struct{}, 1)}
		l.locks[id] = lock
	}
	lock.waiters++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
		return func() {
			<-lock.ch
			l.done(id, lock)
		}, nil
	case <-ctx.Done():
		l.done(id, lock)
		return nil, ctx.Err()
	}
}

func (l *cardLocks) done(id uuid.UUID, lock *cardLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.waiters--
	if lock.waiters == 0 {
		delete(l.locks, id)
	}
}

// size reports the number of cards with a held or awaited lock.
func (l *cardLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
