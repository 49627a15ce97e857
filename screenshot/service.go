package screenshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

var ErrDisabled = errors.New("screenshot capture is disabled")

type Config struct {
	Enabled      bool
	NavTimeout   time.Duration
	RetryTimeout time.Duration
	IdleWindow   time.Duration
	IdleCeiling  time.Duration
	SettleDelay  time.Duration
	ChromePath   string
	UserAgent    string
}

// Service captures above-the-fold screenshots with one long-lived headless
// browser. Each capture opens its own tab.
type Service struct {
	config Config
	logger *log.Logger

	mu            sync.Mutex
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

func NewService(config Config, logger *log.Logger) *Service {
	if config.NavTimeout <= 0 {
		config.NavTimeout = 30 * time.Second
	}
	if config.RetryTimeout <= 0 {
		config.RetryTimeout = 15 * time.Second
	}
	if config.IdleWindow <= 0 {
		config.IdleWindow = 500 * time.Millisecond
	}
	if config.IdleCeiling <= 0 {
		config.IdleCeiling = 5 * time.Second
	}
	return &Service{
		config: config,
		logger: logger.With("component", "screenshot"),
	}
}

func (s *Service) Enabled() bool {
	return s != nil && s.config.Enabled
}

// browser returns the shared browser context, launching Chrome on first use
// or after the previous instance died. Concurrent callers wait on the same launch.
func (s *Service) browser() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx != nil && s.browserCtx.Err() == nil {
		return s.browserCtx, nil
	}
	s.shutdownLocked()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.WindowSize(Width, Height),
	)
	if s.config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.config.UserAgent))
	}
	if s.config.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.config.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	s.logger.Info("Browser launched")
	s.browserCtx = browserCtx
	s.cancelBrowser = cancelBrowser
	s.cancelAlloc = cancelAlloc
	return browserCtx, nil
}

func (s *Service) shutdownLocked() {
	if s.cancelBrowser != nil {
		s.cancelBrowser()
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
	}
	s.browserCtx, s.cancelBrowser, s.cancelAlloc = nil, nil, nil
}

// Close shuts the browser down. A later capture relaunches it.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browserCtx != nil {
		s.logger.Info("Closing browser")
	}
	s.shutdownLocked()
}

// CaptureWebsite returns a normalized 1920x1080 JPEG of the page above the fold.
// A navigation timeout is retried once with the shorter retry timeout.
func (s *Service) CaptureWebsite(ctx context.Context, url string) ([]byte, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}

	start := time.Now()
	raw, err := s.capture(ctx, url, s.config.NavTimeout)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		s.logger.Warn("Screenshot timed out, retrying", "url", url, "timeout", s.config.RetryTimeout)
		raw, err = s.capture(ctx, url, s.config.RetryTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("screenshot capture failed for %s: %w", url, err)
	}

	img, err := ProcessUploadedImage(raw)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Screenshot captured", "url", url, "bytes", len(img), "duration", time.Since(start).Round(time.Millisecond))
	return img, nil
}

func (s *Service) capture(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	browserCtx, err := s.browser()
	if err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()

	domReady := make(chan struct{})
	var once sync.Once
	tracker := newIdleTracker()

	chromedp.ListenTarget(tabCtx, func(ev any) {
		switch e := ev.(type) {
		case *page.EventDomContentEventFired:
			once.Do(func() { close(domReady) })
		case *network.EventRequestWillBeSent:
			tracker.started(string(e.RequestID))
		case *network.EventLoadingFinished:
			tracker.finished(string(e.RequestID))
		case *network.EventLoadingFailed:
			tracker.finished(string(e.RequestID))
		}
	})

	var buf []byte
	err = chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.EmulateViewport(Width, Height),
		navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			select {
			case <-domReady:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if !tracker.waitIdle(ctx, s.config.IdleWindow, s.config.IdleCeiling) {
				s.logger.Debug("Network not idle, capturing anyway", "url", url, "pending", tracker.pending())
			}
			return ctx.Err()
		}),
		chromedp.Sleep(s.config.SettleDelay),
		chromedp.CaptureScreenshot(&buf),
	)
	if err != nil {
		if tabCtx.Err() != nil && ctx.Err() == nil && errors.Is(tabCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return nil, err
	}
	return buf, nil
}

// navigate issues Page.navigate without waiting for the load event, so the
// caller decides what "ready" means.
func navigate(url string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var res page.NavigateReturns
		if err := cdp.Execute(ctx, page.CommandNavigate, page.Navigate(url), &res); err != nil {
			return err
		}
		if res.ErrorText != "" {
			return fmt.Errorf("navigate to %s: %s", url, res.ErrorText)
		}
		return nil
	})
}
