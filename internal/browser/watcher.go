// internal/browser/watcher.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/bugtrap/internal/capture"
	"github.com/xkilldash9x/bugtrap/internal/config"
	"github.com/xkilldash9x/bugtrap/internal/ingest"
)

// ErrNoURLs is returned when Watch is called without targets.
var ErrNoURLs = errors.New("no URLs to watch")

// Handler consumes decoded events. *capture.Client satisfies it.
type Handler interface {
	Handle(d capture.Discriminator, raw interface{}) bool
}

// Watcher drives a headless Chrome instance, loads pages with the error hook
// installed and feeds every event the hook reports to a Handler.
type Watcher struct {
	cfg     config.BrowserConfig
	handler Handler
	logger  *zap.Logger
}

// NewWatcher creates a watcher. The browser is launched lazily by Watch.
func NewWatcher(cfg config.BrowserConfig, handler Handler, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		cfg:     cfg,
		handler: handler,
		logger:  logger.Named("browser"),
	}
}

// AllocatorOptions builds the exec allocator flags from the browser configuration.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	for _, arg := range cfg.Args {
		// Accept both "--flag" and "flag", with an optional "=value".
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if found {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(key, true))
		}
	}
	return opts
}

// Watch loads each URL in its own tab, concurrently, and observes it for the
// configured settle time. It returns once every tab is done; the first tab
// failure is returned after all tabs finish.
func (w *Watcher) Watch(ctx context.Context, urls ...string) error {
	if len(urls) == 0 {
		return ErrNoURLs
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, AllocatorOptions(w.cfg)...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(w.logger.Sugar().Debugf),
		chromedp.WithErrorf(w.logger.Sugar().Debugf),
	)
	defer browserCancel()

	// Start the browser before opening tabs.
	if err := chromedp.Run(browserCtx); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	w.logger.Info("Browser started.", zap.Int("targets", len(urls)))

	var g errgroup.Group
	for _, url := range urls {
		url := url
		g.Go(func() error {
			if err := w.watchTab(browserCtx, url); err != nil {
				w.logger.Error("Failed to watch page.", zap.String("url", url), zap.Error(err))
				return fmt.Errorf("watch %s: %w", url, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (w *Watcher) watchTab(browserCtx context.Context, url string) error {
	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()
	timeoutCtx, cancel := context.WithTimeout(tabCtx, w.cfg.Timeout)
	defer cancel()

	chromedp.ListenTarget(tabCtx, w.listener(url))

	w.logger.Info("Watching page.", zap.String("url", url), zap.Duration("settle", w.cfg.Settle))
	return chromedp.Run(timeoutCtx,
		Instrument(),
		chromedp.Navigate(url),
		chromedp.Sleep(w.cfg.Settle),
	)
}

// listener returns the CDP event callback for one tab.
func (w *Watcher) listener(url string) func(ev interface{}) {
	logger := w.logger.With(zap.String("url", url))
	return func(ev interface{}) {
		if e, ok := ev.(*runtime.EventBindingCalled); ok && e.Name == BindingName {
			// Runs on the tab's event goroutine.
			w.dispatch(logger, e.Payload)
		}
	}
}

// dispatch decodes a binding payload and hands it to the handler. A misbehaving
// handler must not take down the CDP event loop.
func (w *Watcher) dispatch(logger *zap.Logger, payload string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while handling page event.",
				zap.Any("panic_reason", r),
				zap.String("stack", string(debug.Stack())))
		}
	}()

	d, raw, err := ingest.Decode([]byte(payload))
	if err != nil {
		logger.Warn("Could not decode page event.", zap.Error(err), zap.String("payload", payload))
		return
	}
	w.handler.Handle(d, raw)
}
