package editor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tacticboard/internal/pitch"
)

func TestStore_CreateGetDelete(t *testing.T) {
	s := NewStore(zaptest.NewLogger(t), time.Millisecond)
	defer s.Close()

	b := s.CreateBoard()
	require.Len(t, b.ID, 16)
	got, ok := s.GetBoard(b.ID)
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, []string{b.ID}, s.Boards())

	assert.True(t, s.DeleteBoard(b.ID))
	_, ok = s.GetBoard(b.ID)
	assert.False(t, ok)
	assert.Nil(t, s.Broadcaster(b.ID))
}

func TestStore_NotifyPublishesCoalescedFieldEvent(t *testing.T) {
	s := NewStore(nil, 20*time.Millisecond)
	defer s.Close()
	b := s.CreateBoard()
	hub := s.Broadcaster(b.ID)
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	geo := pitch.StaticGeometry{Container: pitch.Rect{Width: 100, Height: 100}}
	require.NoError(t, b.BeginDrag(1, false))
	for i := 0; i < 30; i++ {
		b.MoveDrag(pitch.PointerEvent{X: float64(i), Y: 50}, geo)
		s.Notify(b.ID)
	}
	b.EndDrag()
	s.Notify(b.ID)

	seen := map[string]int{}
	timeout := time.After(500 * time.Millisecond)
collect:
	for {
		select {
		case e := <-ch:
			seen[e]++
		case <-timeout:
			break collect
		}
	}
	assert.GreaterOrEqual(t, seen[EventField], 1)
	assert.Less(t, seen[EventField], 30, "moves within a frame are coalesced")
}

func TestStore_CloseEndsStreams(t *testing.T) {
	s := NewStore(nil, time.Millisecond)
	b := s.CreateBoard()
	ch := s.Broadcaster(b.ID).Subscribe()
	s.Close()
	_, open := <-ch
	assert.False(t, open)
}
