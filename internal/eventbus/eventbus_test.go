package eventbus

import "testing"

func TestPublishSubscribe(t *testing.T) {
	bus := New[string]()
	ch := bus.Subscribe()
	bus.Publish("committed")
	if v := <-ch; v != "committed" {
		t.Fatalf("expected committed got %v", v)
	}
	bus.Unsubscribe(ch)
}

func TestPublishDropsWhenFull(t *testing.T) {
	bus := New[int]()
	ch := bus.Subscribe()
	for i := 0; i < 20; i++ {
		bus.Publish(i)
	}
	// Buffer is 8; the rest must have been dropped, not blocked.
	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	if received != 8 {
		t.Fatalf("expected 8 buffered events, got %d", received)
	}
}

func TestClose(t *testing.T) {
	bus := New[struct{}]()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
	// Unsubscribe after Close must not panic.
	bus.Unsubscribe(ch1)
}
