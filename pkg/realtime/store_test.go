package realtime

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewRoomStore(t *testing.T) {
	s := NewRoomStore[string]()
	if s == nil {
		t.Fatal("NewRoomStore returned nil")
	}
}

func TestRoomStore_Create_Get(t *testing.T) {
	s := NewRoomStore[string]()
	s.Create("board1", "state1")
	room, ok := s.Get("board1")
	if !ok {
		t.Fatal("Get returned false for existing room")
	}
	if room.ID != "board1" {
		t.Errorf("room ID %q, want board1", room.ID)
	}
	if room.State != "state1" {
		t.Errorf("room State %q, want state1", room.State)
	}

	_, ok = s.Get("nonexistent")
	if ok {
		t.Error("Get should return false for missing ID")
	}
}

func TestRoomStore_Publish(t *testing.T) {
	s := NewRoomStore[string]()
	s.Create("r1", "x")
	hub := s.Broadcaster("r1")
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	s.Publish("r1", "field")
	got := <-ch
	if got != "field" {
		t.Errorf("got %q, want field", got)
	}
}

func TestRoomStore_BroadcasterMissingRoom(t *testing.T) {
	s := NewRoomStore[string]()
	if hub := s.Broadcaster("ghost"); hub != nil {
		t.Error("Broadcaster should be nil for an unknown room")
	}
	s.Publish("ghost", "field")
	if _, ok := s.Get("ghost"); ok {
		t.Error("Publish must not create rooms")
	}
}

func TestRoomStore_IDs_Delete(t *testing.T) {
	s := NewRoomStore[int]()
	s.Create("b", 2)
	s.Create("a", 1)
	ids := s.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("IDs() = %v, want [a b]", ids)
	}

	ch := s.Broadcaster("a").Subscribe()
	if !s.Delete("a") {
		t.Fatal("Delete returned false for existing room")
	}
	if _, open := <-ch; open {
		t.Error("subscribers should be closed when the room is deleted")
	}
	if s.Delete("a") {
		t.Error("second Delete should return false")
	}
}

func TestRoomStore_Wake_NoPanicWhenNoLoop(t *testing.T) {
	s := NewRoomStore[string]()
	s.Wake("nonexistent")
}

func TestRoomStore_RunLoop_ParksUntilWoken(t *testing.T) {
	s := NewRoomStore[int]()
	s.Create("r", 0)
	ch := s.Broadcaster("r").Subscribe()

	var mu sync.Mutex
	pending := false
	tick := func(_ int, _ time.Time) (time.Time, []string, bool) {
		mu.Lock()
		defer mu.Unlock()
		if !pending {
			return time.Time{}, nil, false
		}
		pending = false
		return time.Time{}, []string{"field"}, false
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.RunLoop(ctx, "r", func() int { return 0 }, tick)
	if !s.Running("r") {
		t.Fatal("loop should be running")
	}

	select {
	case e := <-ch:
		t.Fatalf("parked loop published %q", e)
	case <-time.After(30 * time.Millisecond):
	}

	mu.Lock()
	pending = true
	mu.Unlock()
	s.Wake("r")

	select {
	case e := <-ch:
		if e != "field" {
			t.Errorf("got %q, want field", e)
		}
	case <-time.After(time.Second):
		t.Fatal("woken loop did not publish")
	}
}

func TestRoomStore_RunLoop_StopsOnDelete(t *testing.T) {
	s := NewRoomStore[int]()
	s.Create("r", 0)
	idle := func(int, time.Time) (time.Time, []string, bool) { return time.Time{}, nil, false }
	s.RunLoop(context.Background(), "r", func() int { return 0 }, idle)
	s.Delete("r")

	deadline := time.Now().Add(time.Second)
	for s.Running("r") {
		if time.Now().After(deadline) {
			t.Fatal("loop still running after Delete")
		}
		time.Sleep(time.Millisecond)
	}
}
