package events

import (
	"context"
	"errors"
	"testing"
)

func TestInMemoryBus_SubscribeUnsubscribe(t *testing.T) {
	bus := NewInMemoryBus(0)
	ctx := context.Background()

	var received int
	unsub := bus.Subscribe(func(_ context.Context, _ *Event) error {
		received++
		return nil
	})

	if err := bus.Publish(ctx, &Event{Type: TypeCreated, TaskID: 1}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if received != 1 {
		t.Errorf("received = %d, want 1", received)
	}

	unsub()
	if err := bus.Publish(ctx, &Event{Type: TypeDeleted, TaskID: 1}); err != nil {
		t.Fatalf("Publish after unsub: %v", err)
	}
	if received != 1 {
		t.Errorf("received after unsub = %d, want 1", received)
	}
}

func TestInMemoryBus_FillsIDAndTimestamp(t *testing.T) {
	bus := NewInMemoryBus(0)
	ev := &Event{Type: TypeCompleted, TaskID: 3}
	if err := bus.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if ev.ID == "" {
		t.Error("expected event ID to be assigned")
	}
	if ev.Timestamp.IsZero() {
		t.Error("expected event timestamp to be assigned")
	}
}

func TestInMemoryBus_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewInMemoryBus(0)
	boom := errors.New("boom")

	var second bool
	bus.Subscribe(func(_ context.Context, _ *Event) error { return boom })
	bus.Subscribe(func(_ context.Context, _ *Event) error {
		second = true
		return nil
	})

	err := bus.Publish(context.Background(), &Event{Type: TypeEdited, TaskID: 2})
	if !errors.Is(err, boom) {
		t.Errorf("Publish error = %v, want wrapped boom", err)
	}
	if !second {
		t.Error("second handler was not invoked")
	}
}

func TestInMemoryBus_HistoryLimit(t *testing.T) {
	bus := NewInMemoryBus(4)
	ctx := context.Background()

	for i := int64(1); i <= 6; i++ {
		if err := bus.Publish(ctx, &Event{Type: TypeCreated, TaskID: i}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	all := bus.History(0)
	if len(all) != 4 {
		t.Fatalf("History(0) len = %d, want capped 4", len(all))
	}
	if all[0].TaskID != 3 || all[3].TaskID != 6 {
		t.Errorf("History order = %d..%d, want 3..6", all[0].TaskID, all[3].TaskID)
	}

	last := bus.History(2)
	if len(last) != 2 || last[1].TaskID != 6 {
		t.Errorf("History(2) = %+v, want the two newest events", last)
	}
}
