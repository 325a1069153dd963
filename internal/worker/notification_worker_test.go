package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/provisioning-service/internal/events"
	"github.com/spec-kit/provisioning-service/internal/service"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) PublishEvent(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func TestEventWorkerDeliversInOrder(t *testing.T) {
	pub := &recordingPublisher{}
	w := NewEventWorker(events.NewInMemoryDispatcher(), 8, nil)
	StartNotificationWorker(w, service.NewNotificationService(w, pub, nil))

	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := w.Publish(ctx, events.Event{Type: events.EventProvisioningFailed, RunID: id}); err != nil {
			t.Fatalf("publish %s: %v", id, err)
		}
	}
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if len(pub.events) != 3 {
		t.Fatalf("expected 3 forwarded events, got %d", len(pub.events))
	}
	for i, id := range []string{"a", "b", "c"} {
		if pub.events[i].RunID != id {
			t.Fatalf("event %d: expected %s, got %s", i, id, pub.events[i].RunID)
		}
	}
}

func TestEventWorkerRejectsAfterStop(t *testing.T) {
	w := NewEventWorker(events.NewInMemoryDispatcher(), 1, nil)
	w.Start()
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	err := w.Publish(context.Background(), events.Event{Type: events.EventProvisioningSucceeded})
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestEventWorkerQueueFull(t *testing.T) {
	// Not started, so nothing drains the buffer.
	w := NewEventWorker(events.NewInMemoryDispatcher(), 1, nil)
	ctx := context.Background()
	if err := w.Publish(ctx, events.Event{RunID: "1"}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := w.Publish(ctx, events.Event{RunID: "2"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}
