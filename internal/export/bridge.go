package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"tacticboard/internal/field"
)

const (
	DefaultNavigateTimeout = 30 * time.Second
	DefaultReadyTimeout    = 30 * time.Second
	DefaultMaxConcurrent   = 4
)

var ErrRender = errors.New("export render failed")

// Options tune a Bridge. Zero values take the defaults.
type Options struct {
	MaxConcurrent   int64
	NavigateTimeout time.Duration
	ReadyTimeout    time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = DefaultMaxConcurrent
	}
	if o.NavigateTimeout <= 0 {
		o.NavigateTimeout = DefaultNavigateTimeout
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = DefaultReadyTimeout
	}
	return o
}

// Result is a finished export.
type Result struct {
	Job   Job
	Image []byte
}

// Bridge runs exports: it parks the snapshot in the inbox, holds one render
// context per request and bounds the number of contexts alive at once.
type Bridge struct {
	engine  Engine
	inbox   *Inbox
	opts    Options
	sem     *semaphore.Weighted
	log     *zap.Logger
	metrics *metrics
	now     func() time.Time
}

// NewBridge wires an engine to an inbox. A nil meter uses the global meter provider.
func NewBridge(engine Engine, inbox *Inbox, opts Options, log *zap.Logger, meter metric.Meter) (*Bridge, error) {
	if engine == nil || inbox == nil {
		return nil, errors.New("export bridge needs an engine and an inbox")
	}
	if log == nil {
		log = zap.NewNop()
	}
	m, err := newMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("export metrics: %w", err)
	}
	opts = opts.withDefaults()
	return &Bridge{
		engine:  engine,
		inbox:   inbox,
		opts:    opts,
		sem:     semaphore.NewWeighted(opts.MaxConcurrent),
		log:     log.Named("export"),
		metrics: m,
		now:     time.Now,
	}, nil
}

// Engine returns the engine the bridge renders with.
func (b *Bridge) Engine() Engine {
	return b.engine
}

// Inbox returns the inbox render-only views redeem tokens from.
func (b *Bridge) Inbox() *Inbox {
	return b.inbox
}

// Export renders s as an image. The snapshot is validated and copied before
// rendering; the caller's state is never touched. On failure the returned
// result carries the job with its diagnostics.
func (b *Bridge) Export(ctx context.Context, s field.Snapshot, f Format) (Result, error) {
	token := b.inbox.Put(s)
	defer b.inbox.Discard(token)

	job := newJob(token, f)
	_ = job.transition(JobRequested, b.now())
	log := b.log.With(zap.String("job", token), zap.String("format", string(f)), zap.String("engine", b.engine.Name()))

	if err := s.Validate(); err != nil {
		job.fail(err, b.now())
		b.metrics.record(ctx, f, "invalid", job.Duration())
		return Result{Job: *job}, err
	}

	_ = job.transition(JobRendering, b.now())
	img, err := b.render(ctx, token, f)
	if err != nil {
		var rerr *RenderError
		if !errors.As(err, &rerr) {
			rerr = &RenderError{Err: err}
		}
		rerr.Diagnostics.SnapshotReceived = b.inbox.Delivered(token)
		job.fail(rerr, b.now())
		b.metrics.record(ctx, f, "failed", job.Duration())
		log.Warn("export failed",
			zap.Error(err),
			zap.String("stage", string(job.Diagnostics.Stage)),
			zap.Bool("snapshot_received", job.Diagnostics.SnapshotReceived),
			zap.Bool("ready", job.Diagnostics.Ready),
			zap.String("document_state", job.Diagnostics.DocumentState),
			zap.String("cause", job.Diagnostics.Cause()))
		return Result{Job: *job}, fmt.Errorf("%w: %w", ErrRender, rerr)
	}

	_ = job.transition(JobDone, b.now())
	b.metrics.record(ctx, f, "done", job.Duration())
	log.Debug("export done", zap.Int("bytes", len(img)), zap.Duration("took", job.Duration()))
	return Result{Job: *job, Image: img}, nil
}

func (b *Bridge) render(ctx context.Context, token string, f Format) (img []byte, err error) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.NavigateTimeout+b.opts.ReadyTimeout)
	defer cancel()

	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, &RenderError{Diagnostics: Diagnostics{Stage: StageAcquire}, Err: err}
	}
	defer b.sem.Release(1)

	rc, err := b.engine.Acquire(ctx)
	if err != nil {
		return nil, &RenderError{Diagnostics: Diagnostics{Stage: StageAcquire}, Err: err}
	}
	b.metrics.inFlight.Add(ctx, 1)
	defer func() {
		b.metrics.inFlight.Add(context.WithoutCancel(ctx), -1)
		if cerr := rc.Close(); cerr != nil {
			b.log.Warn("closing render context", zap.Error(cerr))
		}
		if r := recover(); r != nil {
			err = &RenderError{Diagnostics: Diagnostics{Stage: StageCapture}, Err: fmt.Errorf("render panicked: %v", r)}
		}
	}()

	return rc.Render(ctx, Request{
		Token:           token,
		Format:          f,
		NavigateTimeout: b.opts.NavigateTimeout,
		ReadyTimeout:    b.opts.ReadyTimeout,
	})
}

// Shutdown tears down the engine's process, if it has one.
func (b *Bridge) Shutdown(ctx context.Context) error {
	if s, ok := b.engine.(Shutdowner); ok {
		return s.Shutdown(ctx)
	}
	return nil
}
