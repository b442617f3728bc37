package realtime

import (
	"sort"
	"time"
)

// DefaultFrameInterval is one display frame at 60Hz.
const DefaultFrameInterval = 16 * time.Millisecond

// FrameClock coalesces change notifications into at most one flush per
// interval. Marks between flushes collapse: a flush carries each pending
// event name once, however many times it was marked. It holds no room state
// and no lock; the owner serializes access.
type FrameClock struct {
	Interval  time.Duration
	LastFlush time.Time
	pending   map[string]struct{}
}

// NewFrameClock returns a clock with the given interval, or the default when interval <= 0.
func NewFrameClock(interval time.Duration) FrameClock {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return FrameClock{Interval: interval}
}

// Mark records that event should be published on the next flush.
func (c *FrameClock) Mark(event string) {
	if c.pending == nil {
		c.pending = make(map[string]struct{})
	}
	c.pending[event] = struct{}{}
}

// Pending reports whether anything is waiting for a flush.
func (c *FrameClock) Pending() bool {
	return len(c.pending) > 0
}

// NextWake returns when the pending events may be flushed, and whether there
// is anything pending at all.
func (c *FrameClock) NextWake(now time.Time) (time.Time, bool) {
	if !c.Pending() {
		return time.Time{}, false
	}
	next := c.LastFlush.Add(c.interval())
	if now.After(next) {
		return now, true
	}
	return next, true
}

// Advance flushes when a full interval has passed since the last flush and
// returns the flushed events in lexical order. Before that it returns nil and
// keeps the marks.
func (c *FrameClock) Advance(now time.Time) []string {
	if !c.Pending() {
		return nil
	}
	if now.Before(c.LastFlush.Add(c.interval())) {
		return nil
	}
	events := make([]string, 0, len(c.pending))
	for e := range c.pending {
		events = append(events, e)
	}
	sort.Strings(events)
	c.pending = nil
	c.LastFlush = now
	return events
}

func (c *FrameClock) interval() time.Duration {
	if c.Interval <= 0 {
		return DefaultFrameInterval
	}
	return c.Interval
}
