package editor

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"strings"
	"time"

	"go.uber.org/zap"

	"tacticboard/pkg/realtime"
)

// Store holds boards and delegates to realtime.RoomStore for broadcast.
type Store struct {
	r             *realtime.RoomStore[*Board]
	frameInterval time.Duration
	log           *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewStore creates an in-memory board store. Change notifications for a
// board are coalesced to one per frameInterval.
func NewStore(log *zap.Logger, frameInterval time.Duration) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		r:             realtime.NewRoomStore[*Board](),
		frameInterval: frameInterval,
		log:           log,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// CreateBoard starts a new editing session.
func (s *Store) CreateBoard() *Board {
	b := NewBoard(newID(), s.frameInterval)
	s.r.Create(b.ID, b)
	s.log.Debug("board created", zap.String("board", b.ID))
	return b
}

// GetBoard returns a board by ID if it exists.
func (s *Store) GetBoard(id string) (*Board, bool) {
	room, ok := s.r.Get(id)
	if !ok {
		return nil, false
	}
	return room.State, true
}

// DeleteBoard ends a session and its subscriptions.
func (s *Store) DeleteBoard(id string) bool {
	ok := s.r.Delete(id)
	if ok {
		s.log.Debug("board deleted", zap.String("board", id))
	}
	return ok
}

// Boards lists the live board IDs.
func (s *Store) Boards() []string {
	return s.r.IDs()
}

// Broadcaster returns the SSE broadcaster for a board, or nil when the board is unknown.
func (s *Store) Broadcaster(id string) *realtime.Broadcaster {
	return s.r.Broadcaster(id)
}

// Publish sends an event to a board's subscribers right away.
func (s *Store) Publish(id string, event string) {
	s.r.Publish(id, event)
}

// Notify flushes the board's pending change marks through its frame loop,
// starting the loop on first use. Callers mutate the board, then Notify.
func (s *Store) Notify(id string) {
	s.ensureFrameLoop(id)
	s.r.Wake(id)
}

func (s *Store) ensureFrameLoop(id string) {
	if s.r.Running(id) {
		return
	}
	getState := func() *Board {
		room, ok := s.r.Get(id)
		if !ok {
			return nil
		}
		return room.State
	}
	tick := func(b *Board, now time.Time) (time.Time, []string, bool) {
		if b == nil {
			return time.Time{}, nil, true
		}
		events := b.FlushFrame(now)
		return b.NextFrame(now), events, false
	}
	s.r.RunLoop(s.ctx, id, getState, tick)
}

// Close stops every frame loop.
func (s *Store) Close() {
	s.cancel()
	for _, id := range s.r.IDs() {
		if hub := s.r.Broadcaster(id); hub != nil {
			hub.Close()
		}
	}
}

func newID() string {
	// 10 bytes -> 16 chars of base32, short and url-safe.
	buf := make([]byte, 10)
	_, _ = rand.Read(buf)
	encoder := base32.StdEncoding.WithPadding(base32.NoPadding)
	return strings.ToLower(encoder.EncodeToString(buf))
}
