package export

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"tacticboard/internal/field"
)

// DefaultInboxTTL bounds how long an untaken snapshot waits for its renderer.
const DefaultInboxTTL = 2 * time.Minute

type inboxEntry struct {
	snapshot  field.Snapshot
	expires   time.Time
	delivered bool
}

// Inbox hands each snapshot to exactly one renderer. Put returns a token
// the renderer redeems with Take; a token can be redeemed once.
type Inbox struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*inboxEntry
	now     func() time.Time
}

// NewInbox returns an empty inbox. ttl <= 0 uses DefaultInboxTTL.
func NewInbox(ttl time.Duration) *Inbox {
	if ttl <= 0 {
		ttl = DefaultInboxTTL
	}
	return &Inbox{
		ttl:     ttl,
		entries: make(map[string]*inboxEntry),
		now:     time.Now,
	}
}

// Put stores a snapshot and returns its token.
func (in *Inbox) Put(s field.Snapshot) string {
	token := uuid.NewString()
	in.mu.Lock()
	defer in.mu.Unlock()
	in.sweepLocked()
	in.entries[token] = &inboxEntry{snapshot: s, expires: in.now().Add(in.ttl)}
	return token
}

// Take redeems a token. It fails for unknown, expired or already redeemed tokens.
func (in *Inbox) Take(token string) (field.Snapshot, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	e, ok := in.entries[token]
	if !ok || e.delivered || in.now().After(e.expires) {
		return field.Snapshot{}, false
	}
	e.delivered = true
	s := e.snapshot
	e.snapshot = field.Snapshot{}
	return s, true
}

// Delivered reports whether the token has been redeemed.
func (in *Inbox) Delivered(token string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	e, ok := in.entries[token]
	return ok && e.delivered
}

// Discard forgets a token.
func (in *Inbox) Discard(token string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	delete(in.entries, token)
}

// Len returns the number of tokens held, redeemed or not.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.entries)
}

func (in *Inbox) sweepLocked() {
	now := in.now()
	for token, e := range in.entries {
		if now.After(e.expires) {
			delete(in.entries, token)
		}
	}
}
