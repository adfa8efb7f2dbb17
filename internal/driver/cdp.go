// File: internal/driver/cdp.go
package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// CDP drives a Chromium instance over the DevTools protocol via chromedp.
type CDP struct {
	logger *zap.Logger

	// browserCtx is the long-lived chromedp context; every action runs
	// against it. It is detached from the caller's request contexts on
	// purpose: a cancelled request must not tear down the browser.
	browserCtx  context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

var _ Driver = (*CDP)(nil)

// execOptions translates a session Config into chromedp allocator options.
func execOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		// Required on hardened systems and in containers.
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	}

	if cfg.Headless {
		opts = append(opts, chromedp.Headless, chromedp.DisableGPU)
	}
	if cfg.ExecutablePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecutablePath))
	}
	if cfg.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.Proxy))
	}
	if cfg.DisableWebdriverFlag {
		opts = append(opts, chromedp.Flag("disable-blink-features", "AutomationControlled"))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	// Extra args arrive in "--key=value" or "--flag" form.
	for _, arg := range cfg.ExtraArgs {
		arg = strings.TrimPrefix(arg, "--")
		if key, value, found := strings.Cut(arg, "="); found {
			opts = append(opts, chromedp.Flag(key, value))
		} else if arg != "" {
			opts = append(opts, chromedp.Flag(arg, true))
		}
	}
	return opts
}

// Launch starts a browser per cfg and applies the stealth persona. The
// returned driver owns the browser process; Close releases it. The passed
// context only scopes the launch itself.
func Launch(_ context.Context, cfg Config, logger *zap.Logger) (Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("cdp")

	// The browser outlives any single request, so its contexts chain off
	// Background rather than the launch context.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), execOptions(cfg)...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	d := &CDP{
		logger:      log,
		browserCtx:  browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
	}

	// Starting the browser and injecting the persona happen in one Run so a
	// failed launch never leaks a half-initialized process.
	if err := chromedp.Run(browserCtx, stealthTasks(cfg, log)); err != nil {
		d.release()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	log.Info("Browser launched",
		zap.Bool("headless", cfg.Headless),
		zap.Int("width", cfg.WindowWidth),
		zap.Int("height", cfg.WindowHeight),
	)
	return d, nil
}

// release tears down the chromedp contexts without waiting.
func (d *CDP) release() {
	d.cancelCtx()
	d.cancelAlloc()
}

// run executes actions against the browser, honoring the request context for
// cancellation without binding the browser's lifetime to it.
func (d *CDP) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := mergeContext(d.browserCtx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (d *CDP) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %q failed: %w", url, err)
	}
	return nil
}

func (d *CDP) CurrentURL(ctx context.Context) (string, error) {
	var u string
	err := d.run(ctx, chromedp.Location(&u))
	return u, err
}

func (d *CDP) Title(ctx context.Context) (string, error) {
	var t string
	err := d.run(ctx, chromedp.Title(&t))
	return t, err
}

func (d *CDP) FindElement(ctx context.Context, selector string) (Element, error) {
	var nodes []*cdp.Node
	err := d.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("query for %q failed: %w", selector, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return &cdpElement{driver: d, selector: selector, nodeID: nodes[0].NodeID}, nil
}

func (d *CDP) ClickAt(ctx context.Context, x, y int) error {
	return d.run(ctx, chromedp.MouseClickXY(float64(x), float64(y)))
}

func (d *CDP) MovePointer(ctx context.Context, x, y int) error {
	return d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseMoved, float64(x), float64(y)).Do(ctx)
	}))
}

func (d *CDP) ScrollBy(ctx context.Context, delta int) error {
	return d.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", delta), nil))
}

func (d *CDP) ScrollToTop(ctx context.Context) error {
	return d.run(ctx, chromedp.Evaluate("window.scrollTo(0, 0)", nil))
}

func (d *CDP) ScrollToBottom(ctx context.Context) error {
	return d.run(ctx, chromedp.Evaluate("window.scrollTo(0, document.body.scrollHeight)", nil))
}

func (d *CDP) WaitVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := d.run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *CDP) RunScript(ctx context.Context, code string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := d.run(ctx, chromedp.Evaluate(code, &raw))
	if err != nil {
		// Scripts legitimately evaluate to undefined or null; surface that
		// as JSON null rather than an error.
		if errors.Is(err, chromedp.ErrJSUndefined) || errors.Is(err, chromedp.ErrJSNull) {
			return json.RawMessage("null"), nil
		}
		return nil, fmt.Errorf("script evaluation failed: %w", err)
	}
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	return raw, nil
}

func (d *CDP) Screenshot(ctx context.Context, format string, fullPage bool) ([]byte, error) {
	fmtParam := page.CaptureScreenshotFormatPng
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		fmtParam = page.CaptureScreenshotFormatJpeg
	case "webp":
		fmtParam = page.CaptureScreenshotFormatWebp
	}

	var buf []byte
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(fmtParam).
			WithCaptureBeyondViewport(fullPage).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("screenshot capture failed: %w", err)
	}
	return buf, nil
}

// Close shuts the browser down gracefully, then releases the contexts.
// Teardown errors are logged and dropped; the caller only cares that the
// process is gone.
func (d *CDP) Close(ctx context.Context) error {
	if err := chromedp.Cancel(d.browserCtx); err != nil {
		d.logger.Debug("graceful browser shutdown failed", zap.Error(err))
	}
	d.release()
	d.logger.Info("Browser closed")
	return nil
}

// cdpElement implements Element for a node located by FindElement.
type cdpElement struct {
	driver   *CDP
	selector string
	nodeID   cdp.NodeID
}

func (e *cdpElement) Selector() string { return e.selector }

func (e *cdpElement) Center(ctx context.Context) (int, int, error) {
	var box *dom.BoxModel
	err := e.driver.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		box, err = dom.GetBoxModel().WithNodeID(e.nodeID).Do(ctx)
		return err
	}))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get box model for %q: %w", e.selector, err)
	}
	if box == nil || len(box.Content) < 8 {
		return 0, 0, fmt.Errorf("element %q has no geometric representation", e.selector)
	}

	// Content is [x0, y0, x1, y1, x2, y2, x3, y3]; the centroid is the mean.
	cx := (box.Content[0] + box.Content[2] + box.Content[4] + box.Content[6]) / 4
	cy := (box.Content[1] + box.Content[3] + box.Content[5] + box.Content[7]) / 4
	return int(cx), int(cy), nil
}

func (e *cdpElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.driver.run(ctx, chromedp.Text(e.selector, &text, chromedp.ByQuery, chromedp.AtLeast(0)))
	return text, err
}

func (e *cdpElement) Click(ctx context.Context) error {
	return e.driver.run(ctx, chromedp.Click(e.selector, chromedp.ByQuery))
}

func (e *cdpElement) Clear(ctx context.Context) error {
	return e.driver.run(ctx, chromedp.Clear(e.selector, chromedp.ByQuery))
}

func (e *cdpElement) InputChar(ctx context.Context, c rune) error {
	return e.driver.run(ctx, chromedp.SendKeys(e.selector, string(c), chromedp.ByQuery))
}

func (e *cdpElement) InputText(ctx context.Context, text string) error {
	return e.driver.run(ctx, chromedp.SendKeys(e.selector, text, chromedp.ByQuery))
}
