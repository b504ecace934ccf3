package events

import (
	"context"
	"errors"
	"testing"
)

func TestPublishInvokesSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketOverdue, func(_ context.Context, _ Event) error {
		t.Error("overdue handler must not fire for created events")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "tck-1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("handlers invoked = %d, want 2", len(got))
	}
}

func TestPublishContinuesPastFailingHandler(t *testing.T) {
	d := NewInMemoryDispatcher()

	called := false
	d.Subscribe(EventTicketTransitioned, func(_ context.Context, _ Event) error {
		return errors.New("handler down")
	})
	d.Subscribe(EventTicketTransitioned, func(_ context.Context, _ Event) error {
		called = true
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketTransitioned}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !called {
		t.Error("a failing handler must not stop later handlers")
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	if err := d.Publish(context.Background(), Event{Type: EventTicketCommentAdded}); err != nil {
		t.Fatalf("Publish with no subscribers: %v", err)
	}
}
