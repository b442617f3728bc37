package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	// ReadySelector matches the render-only view once it has settled.
	ReadySelector = `[data-field-ready="true"]`
	// CaptureSelector is the element the screenshot is scoped to.
	CaptureSelector = "#pitch-container"

	diagnosticsTimeout = 2 * time.Second
)

var ErrNoBaseURL = errors.New("chrome engine needs the server base URL")

// ChromeOptions configure the headless browser engine.
type ChromeOptions struct {
	// RemoteURL is a devtools websocket URL; empty starts a local browser.
	RemoteURL string
	// ExecPath overrides the local browser binary.
	ExecPath string
	// BaseURL is where this server's render-only view is reachable from the browser.
	BaseURL     string
	Width       int64
	Height      int64
	DeviceScale float64
}

func (o ChromeOptions) withDefaults() ChromeOptions {
	if o.Width <= 0 {
		o.Width = 3840
	}
	if o.Height <= 0 {
		o.Height = 2160
	}
	if o.DeviceScale <= 0 {
		o.DeviceScale = DefaultDeviceScale
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	return o
}

// ChromeEngine screenshots the render-only view in a headless browser. The
// browser is started on first use and shared; each context is a separate
// incognito browser context.
type ChromeEngine struct {
	opts ChromeOptions
	log  *zap.Logger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	launch        func() (browser context.Context, cancel, allocCancel context.CancelFunc, err error)
}

// NewChromeEngine returns an engine that has not started a browser yet.
func NewChromeEngine(opts ChromeOptions, log *zap.Logger) (*ChromeEngine, error) {
	opts = opts.withDefaults()
	if opts.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	e := &ChromeEngine{opts: opts, log: log.Named("chrome")}
	e.launch = e.start
	return e, nil
}

func (e *ChromeEngine) Name() string { return "chrome" }

// browser returns the shared browser, starting it on first use. A browser
// that has crashed or disconnected is released and started again.
func (e *ChromeEngine) browser() (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browserCtx != nil {
		if e.browserCtx.Err() == nil {
			return e.browserCtx, nil
		}
		e.log.Warn("browser gone, relaunching", zap.NamedError("cause", context.Cause(e.browserCtx)))
		e.releaseLocked()
	}
	browserCtx, browserCancel, allocCancel, err := e.launch()
	if err != nil {
		return nil, err
	}
	e.allocCancel = allocCancel
	e.browserCtx = browserCtx
	e.browserCancel = browserCancel
	return browserCtx, nil
}

func (e *ChromeEngine) start() (context.Context, context.CancelFunc, context.CancelFunc, error) {
	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if e.opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), e.opts.RemoteURL)
	} else {
		opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		opts = append(opts, chromedp.DisableGPU, chromedp.Flag("hide-scrollbars", true))
		if e.opts.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(e.opts.ExecPath))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}
	sugar := e.log.Sugar()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Warnf))
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, nil, nil, fmt.Errorf("start browser: %w", err)
	}
	e.log.Info("browser started", zap.Bool("remote", e.opts.RemoteURL != ""))
	return browserCtx, browserCancel, allocCancel, nil
}

func (e *ChromeEngine) releaseLocked() {
	e.browserCancel()
	e.allocCancel()
	e.browserCtx, e.browserCancel, e.allocCancel = nil, nil, nil
}

func (e *ChromeEngine) Acquire(ctx context.Context) (RenderContext, error) {
	browserCtx, err := e.browser()
	if err != nil {
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(browserCtx, chromedp.WithNewBrowserContext())
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("open browser context: %w", err)
	}
	return &chromeContext{engine: e, ctx: tabCtx, cancel: cancel}, nil
}

// Shutdown closes the browser if it was started.
func (e *ChromeEngine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browserCtx == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(e.browserCtx) }()
	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	e.releaseLocked()
	e.log.Info("browser stopped")
	return err
}

type chromeContext struct {
	engine *ChromeEngine
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

func (c *chromeContext) Render(ctx context.Context, req Request) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrContextClosed
	}
	stop := context.AfterFunc(ctx, c.cancel)
	defer stop()
	opts := c.engine.opts

	if err := c.run(req.NavigateTimeout,
		chromedp.EmulateViewport(opts.Width, opts.Height, chromedp.EmulateScale(opts.DeviceScale)),
		chromedp.Navigate(opts.BaseURL+"/export/render/"+req.Token),
		disableAnimations(),
	); err != nil {
		return nil, c.failure(StageNavigate, err)
	}

	if err := c.run(req.ReadyTimeout, chromedp.WaitReady(ReadySelector, chromedp.ByQuery)); err != nil {
		return nil, c.failure(StageReady, err)
	}

	var shot []byte
	if err := c.run(req.ReadyTimeout, chromedp.Screenshot(CaptureSelector, &shot, chromedp.ByQuery)); err != nil {
		return nil, c.failure(StageCapture, err)
	}
	img, err := Transcode(shot, req.Format)
	if err != nil {
		return nil, &RenderError{Diagnostics: Diagnostics{Stage: StageEncode, Ready: true}, Err: err}
	}
	return img, nil
}

func (c *chromeContext) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// failure reads what the page got to before stage failed. The bridge adds
// whether the snapshot was redeemed.
func (c *chromeContext) failure(stage Stage, err error) error {
	d := Diagnostics{Stage: stage}
	ctx, cancel := context.WithTimeout(c.ctx, diagnosticsTimeout)
	defer cancel()
	_ = chromedp.Run(ctx,
		chromedp.Evaluate(`document.readyState`, &d.DocumentState),
		chromedp.Evaluate(`document.querySelector('`+ReadySelector+`') !== null`, &d.Ready),
	)
	return &RenderError{Diagnostics: d, Err: err}
}

func (c *chromeContext) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := chromedp.Cancel(c.ctx)
	c.cancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func disableAnimations() chromedp.Action {
	const js = `(() => {
		const style = document.createElement('style');
		style.textContent = '*,*::before,*::after{animation:none!important;transition:none!important}';
		document.head.appendChild(style);
		return true;
	})()`
	var ok bool
	return chromedp.Evaluate(js, &ok)
}
