package task

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noop(ctx context.Context) error { return nil }

func TestTaskQueue(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(2, setupTestLogger())

	first := NewFuncTask("test", noop)
	require.NoError(t, q.Enqueue(first))
	require.NoError(t, q.Enqueue(NewFuncTask("test", noop)))
	assert.Equal(t, 2, q.Len())

	err := q.Enqueue(NewFuncTask("test", noop))
	assert.ErrorIs(t, err, ErrQueueFull)

	got := <-q.GetChannel()
	assert.Equal(t, first.ID(), got.ID())

	q.Close()
	q.Close()
	assert.ErrorIs(t, q.Enqueue(NewFuncTask("test", noop)), ErrQueueClosed)

	// The remaining task is still readable after close.
	_, ok := <-q.GetChannel()
	assert.True(t, ok)
	_, ok = <-q.GetChannel()
	assert.False(t, ok)
}

func TestTaskQueueConcurrentEnqueueAndClose(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(1000, setupTestLogger())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Enqueue(NewFuncTask("test", noop))
		}()
	}
	q.Close()
	wg.Wait()
}
