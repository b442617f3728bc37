package export

import (
	"context"
	"errors"
	"time"
)

var (
	ErrContextClosed = errors.New("render context closed")

	errSnapshotMissing = errors.New("snapshot token unknown or already redeemed")
)

// Request is what a render context needs: the inbox token holding the
// snapshot, the output format and the per-phase time limits.
type Request struct {
	Token           string
	Format          Format
	NavigateTimeout time.Duration
	ReadyTimeout    time.Duration
}

// Engine produces isolated render contexts. An engine may share an
// underlying process between contexts but never page state.
type Engine interface {
	Name() string
	Acquire(ctx context.Context) (RenderContext, error)
}

// RenderContext renders one request. It is used by a single export and
// closed when that export ends, whatever the outcome.
type RenderContext interface {
	Render(ctx context.Context, req Request) ([]byte, error)
	Close() error
}

// Shutdowner is implemented by engines holding a process to tear down on exit.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}
