package realtime

import (
	"testing"
)

func TestNewBroadcaster(t *testing.T) {
	b := NewBroadcaster()
	if b == nil {
		t.Fatal("NewBroadcaster returned nil")
	}
}

func TestBroadcaster_Subscribe(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe returned nil channel")
	}
	b.Unsubscribe(ch)
}

func TestBroadcaster_PublishDeliversToSubscriber(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish("field")
	got := <-ch
	if got != "field" {
		t.Errorf("got event %q, want %q", got, "field")
	}
}

func TestBroadcaster_PublishDeliversToMultipleSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	defer b.Unsubscribe(ch1)
	defer b.Unsubscribe(ch2)

	b.Publish("menu")
	if got := <-ch1; got != "menu" {
		t.Errorf("ch1 got %q, want menu", got)
	}
	if got := <-ch2; got != "menu" {
		t.Errorf("ch2 got %q, want menu", got)
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	_, open := <-ch
	if open {
		t.Error("channel should be closed after Unsubscribe")
	}
}

func TestBroadcaster_UnsubscribeRemovesFromDelivery(t *testing.T) {
	b := NewBroadcaster()
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	b.Unsubscribe(ch1) // ch1 is closed; only ch2 should receive subsequent events
	b.Publish("waypoints")
	if got := <-ch2; got != "waypoints" {
		t.Errorf("ch2 got %q, want waypoints", got)
	}
	b.Unsubscribe(ch2)
}

func TestBroadcaster_PublishCountsDelivered(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < SubscriberBuffer; i++ {
		if n := b.Publish("field"); n != 1 {
			t.Fatalf("publish %d delivered to %d subscribers, want 1", i, n)
		}
	}
	if n := b.Publish("field"); n != 0 {
		t.Errorf("full subscriber should be skipped, delivered %d", n)
	}
}

func TestBroadcaster_CloseEndsSubscriptions(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	b.Close()
	if _, open := <-ch; open {
		t.Error("channel should be closed after Close")
	}
	if got := b.Subscribers(); got != 0 {
		t.Errorf("Subscribers() = %d after Close, want 0", got)
	}
	late := b.Subscribe()
	if _, open := <-late; open {
		t.Error("subscription after Close should be closed")
	}
	b.Unsubscribe(ch)
	b.Close()
}
