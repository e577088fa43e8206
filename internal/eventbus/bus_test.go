package eventbus

import (
	"testing"
	"time"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New()

	id1, ch1 := b.Subscribe(4)
	id2, ch2 := b.Subscribe(4)
	defer b.Unsubscribe(id1)
	defer b.Unsubscribe(id2)

	b.PublishNew(EventTypeFileDetected, "simulated_data/fire.json", "", nil)

	for i, ch := range []<-chan *Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Type != EventTypeFileDetected {
				t.Errorf("subscriber %d: unexpected type %s", i, ev.Type)
			}
			if ev.ResourceID != "simulated_data/fire.json" {
				t.Errorf("subscriber %d: unexpected resource %s", i, ev.ResourceID)
			}
			if ev.ID == "" {
				t.Errorf("subscriber %d: empty event id", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: no event received", i)
		}
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	b := New()

	id, ch := b.Subscribe(1)
	defer b.Unsubscribe(id)

	b.PublishNew(EventTypeRunStarted, "run-1", "", nil)
	// Buffer is full now; this one must be dropped without blocking.
	done := make(chan struct{})
	go func() {
		b.PublishNew(EventTypeRunStarted, "run-2", "", nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer")
	}

	ev := <-ch
	if ev.ResourceID != "run-1" {
		t.Errorf("unexpected resource %s", ev.ResourceID)
	}
	select {
	case ev := <-ch:
		t.Errorf("expected dropped event, got %v", ev)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()

	id, ch := b.Subscribe(1)
	b.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	b.PublishNew(EventTypeRunCompleted, "run-1", "", nil)
}
