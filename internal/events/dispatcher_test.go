package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherInvokesAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventProvisioningFailed, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("sink down")
	})
	d.Subscribe(EventProvisioningFailed, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventProvisioningSucceeded, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventProvisioningFailed, RunID: "run-1"})
	if err == nil {
		t.Fatalf("expected handler error to surface")
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestDispatcherWithoutListeners(t *testing.T) {
	if err := NewInMemoryDispatcher().Publish(context.Background(), Event{Type: EventProvisioningSucceeded}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestDispatcherRecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher()
	reached := false
	d.Subscribe(EventProvisioningSucceeded, func(context.Context, Event) error {
		panic("boom")
	})
	d.Subscribe(EventProvisioningSucceeded, func(context.Context, Event) error {
		reached = true
		return nil
	})
	if err := d.Publish(context.Background(), Event{Type: EventProvisioningSucceeded}); err == nil {
		t.Fatalf("expected panic reported as error")
	}
	if !reached {
		t.Fatalf("later handler skipped after panic")
	}
}
