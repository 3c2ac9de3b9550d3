package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-tutor/internal/events"
)

// AsyncEmitter implements events.EventEmitter by queuing delivery to another
// emitter on the worker pool. EmitEvent returns as soon as the event is
// queued; delivery failures are only logged.
type AsyncEmitter struct {
	delegate events.EventEmitter
	queue    TaskQueueWriter
	logger   *slog.Logger
}

var _ events.EventEmitter = (*AsyncEmitter)(nil)

// NewAsyncEmitter creates an emitter that delivers to delegate in the background.
func NewAsyncEmitter(delegate events.EventEmitter, queue TaskQueueWriter, logger *slog.Logger) *AsyncEmitter {
	if delegate == nil {
		panic("delegate emitter cannot be nil")
	}
	if queue == nil {
		panic("task queue cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncEmitter{
		delegate: delegate,
		queue:    queue,
		logger:   logger.With(slog.String("component", "async_event_emitter")),
	}
}

// EmitEvent queues the event. It fails only when the queue rejects the task.
func (e *AsyncEmitter) EmitEvent(ctx context.Context, event *events.Event) error {
	// Keep request-scoped values such as the logger, but not the deadline.
	detached := context.WithoutCancel(ctx)

	t := NewFuncTask(TaskTypeEventDelivery, func(taskCtx context.Context) error {
		// Cancel delivery when the pool shuts down.
		deliverCtx, cancel := context.WithCancel(detached)
		defer cancel()
		stop := context.AfterFunc(taskCtx, cancel)
		defer stop()

		return e.delegate.EmitEvent(deliverCtx, event)
	})

	if err := e.queue.Enqueue(t); err != nil {
		e.logger.Warn("dropping event",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.Type),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to queue event %s: %w", event.ID, err)
	}
	return nil
}
