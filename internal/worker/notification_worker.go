// Package worker moves outcome notifications off the request path.
package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/provisioning-service/internal/events"
	"github.com/spec-kit/provisioning-service/internal/service"
)

var (
	// ErrQueueFull is returned when the event buffer has no room.
	ErrQueueFull = errors.New("event queue full")
	// ErrStopped is returned for events published after Stop.
	ErrStopped = errors.New("event worker stopped")
)

// EventWorker is a dispatcher that queues events and delivers them from a
// single background goroutine, in publish order.
type EventWorker struct {
	inner  events.Dispatcher
	logger *zap.Logger

	mu      sync.Mutex
	stopped bool
	queue   chan events.Event
	done    chan struct{}
}

// NewEventWorker wraps inner with a queue of the given size.
func NewEventWorker(inner events.Dispatcher, buffer int, logger *zap.Logger) *EventWorker {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventWorker{
		inner:  inner,
		logger: logger,
		queue:  make(chan events.Event, buffer),
		done:   make(chan struct{}),
	}
}

// Start launches the delivery loop.
func (w *EventWorker) Start() {
	go func() {
		defer close(w.done)
		for event := range w.queue {
			if err := w.inner.Publish(context.Background(), event); err != nil {
				w.logger.Warn("event handler failed",
					zap.String("run_id", event.RunID),
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
			}
		}
	}()
}

// Publish enqueues event without waiting for handlers.
func (w *EventWorker) Publish(_ context.Context, event events.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe registers handler on the wrapped dispatcher.
func (w *EventWorker) Subscribe(eventType events.EventType, handler events.EventHandler) {
	w.inner.Subscribe(eventType, handler)
}

// Stop refuses new events and waits for queued ones to be delivered or ctx to end.
func (w *EventWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartNotificationWorker registers notification handlers and starts delivery.
func StartNotificationWorker(w *EventWorker, notificationService *service.NotificationService) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	w.Start()
}
