package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/blogadmin/internal/common"
	"github.com/ternarybob/blogadmin/internal/interfaces"
)

// ChromeDPPage drives a single Chrome tab through chromedp.
type ChromeDPPage struct {
	ctx           context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	timeout       time.Duration
	logger        arbor.ILogger
	markSeq       atomic.Int64
}

var _ interfaces.Page = (*ChromeDPPage)(nil)

// NewChromeDPPage launches Chrome with the configured flags and verifies the
// tab responds before returning it.
func NewChromeDPPage(config *common.Config, logger arbor.ILogger) (*ChromeDPPage, error) {
	startTime := time.Now()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Browser.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", config.Browser.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(config.Browser.WindowWidth, config.Browser.WindowHeight),
	)
	if config.Browser.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.Browser.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	ctxOpts := []chromedp.ContextOption{
		chromedp.WithLogf(func(s string, i ...interface{}) {
			logger.Debug().Msgf("chromedp: "+s, i...)
		}),
		chromedp.WithErrorf(func(s string, i ...interface{}) {
			logger.Warn().Msgf("chromedp: "+s, i...)
		}),
	}
	if config.Browser.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(func(s string, i ...interface{}) {
			logger.Trace().Msgf("cdp: "+s, i...)
		}))
	}
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	p := &ChromeDPPage{
		ctx:           browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		timeout:       config.Timing.WaitTimeoutDuration(),
		logger:        logger,
	}

	// Startup probe: the first Run launches the browser
	var title string
	if err := p.run(context.Background(), p.timeout,
		chromedp.Navigate("about:blank"),
		chromedp.Title(&title),
	); err != nil {
		p.Close()
		return nil, fmt.Errorf("browser failed startup test: %w", err)
	}

	logger.Debug().
		Dur("startup_time", time.Since(startTime)).
		Bool("headless", config.Browser.Headless).
		Msg("Chrome tab ready")

	return p, nil
}

// run executes actions against the tab, bounded by timeout and by the caller's ctx.
// Deadline expiry is reported as interfaces.ErrTimeout.
func (p *ChromeDPPage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) || errors.Is(err, chromedp.ErrPollingTimeout) {
		return fmt.Errorf("%w after %v: %v", interfaces.ErrTimeout, timeout, err)
	}
	return err
}

func (p *ChromeDPPage) runScript(ctx context.Context, fn string, args map[string]any) (string, error) {
	encoded, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to encode script args: %w", err)
	}
	expression := fmt.Sprintf("(%s)(%s)", envelopeFunc(fn), encoded)

	var raw string
	if err := p.run(ctx, p.timeout, chromedp.Evaluate(expression, &raw)); err != nil {
		return "", err
	}
	return raw, nil
}

func (p *ChromeDPPage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, p.timeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (p *ChromeDPPage) Click(ctx context.Context, selector string) error {
	if err := p.run(ctx, p.timeout, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

// ClickText clicks the first visible element whose text contains label.
func (p *ChromeDPPage) ClickText(ctx context.Context, label string) error {
	marker := fmt.Sprintf("m%d", p.markSeq.Add(1))
	args, err := json.Marshal(map[string]any{"xpath": labelXPath(label), "marker": marker})
	if err != nil {
		return fmt.Errorf("failed to encode label %q: %w", label, err)
	}
	// Poll accepts a plain expression; the marker is truthy once found
	expression := fmt.Sprintf("(%s)(%s)", scriptMarkLabel, args)

	var found string
	err = p.run(ctx, p.timeout,
		chromedp.Poll(expression, &found,
			chromedp.WithPollingTimeout(p.timeout),
			chromedp.WithPollingInterval(100*time.Millisecond),
		),
		chromedp.Click(fmt.Sprintf(`[data-blogadmin-click="%s"]`, marker), chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to click element labelled %q: %w", label, err)
	}
	return nil
}

func (p *ChromeDPPage) Type(ctx context.Context, selector, text string) error {
	if err := p.run(ctx, p.timeout, chromedp.SendKeys(selector, text, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to type into %s: %w", selector, err)
	}
	return nil
}

// Clear selects the field content and deletes it with a Backspace key press.
func (p *ChromeDPPage) Clear(ctx context.Context, selector string) error {
	if err := p.run(ctx, p.timeout, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", selector, err)
	}
	if _, err := evalAs[bool](ctx, p, scriptFocusSelect, map[string]any{"selector": selector}); err != nil {
		return fmt.Errorf("failed to clear %s: %w", selector, err)
	}
	return p.PressKey(ctx, interfaces.KeyBackspace)
}

func (p *ChromeDPPage) PressKey(ctx context.Context, key string) error {
	keys, ok := chromedpKeys[key]
	if !ok {
		keys = key
	}
	if err := p.run(ctx, p.timeout, chromedp.KeyEvent(keys)); err != nil {
		return fmt.Errorf("failed to press %s: %w", key, err)
	}
	return nil
}

var chromedpKeys = map[string]string{
	interfaces.KeyTab:       kb.Tab,
	interfaces.KeyBackspace: kb.Backspace,
	interfaces.KeyEnter:     kb.Enter,
}

func (p *ChromeDPPage) Select(ctx context.Context, selector, value string) error {
	if err := p.run(ctx, p.timeout, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to select %q in %s: %w", value, selector, err)
	}
	if _, err := evalAs[bool](ctx, p, scriptSelect, map[string]any{"selector": selector, "value": value}); err != nil {
		return fmt.Errorf("failed to select %q in %s: %w", value, selector, err)
	}
	return nil
}

func (p *ChromeDPPage) UploadFile(ctx context.Context, selector, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve upload file %s: %w", path, err)
	}
	if err := p.run(ctx, p.timeout, chromedp.SetUploadFiles(selector, []string{abs}, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to upload %s via %s: %w", abs, selector, err)
	}
	return nil
}

func (p *ChromeDPPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.timeout
	}
	if err := p.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("waiting for %s: %w", selector, err)
	}
	return nil
}

func (p *ChromeDPPage) Count(ctx context.Context, selector string) (int, error) {
	return evalAs[int](ctx, p, scriptCount, map[string]any{"selector": selector})
}

func (p *ChromeDPPage) Text(ctx context.Context, selector string) (string, error) {
	return evalAs[string](ctx, p, scriptText, map[string]any{"selector": selector})
}

func (p *ChromeDPPage) Values(ctx context.Context, selector string) ([]string, error) {
	return evalAs[[]string](ctx, p, scriptValues, map[string]any{"selector": selector})
}

func (p *ChromeDPPage) Disabled(ctx context.Context, selector string) (bool, error) {
	return evalAs[bool](ctx, p, scriptDisabled, map[string]any{"selector": selector})
}

func (p *ChromeDPPage) TextsWithin(ctx context.Context, container, inner string) ([]string, error) {
	return evalAs[[]string](ctx, p, scriptTextsWithin, map[string]any{"container": container, "inner": inner})
}

func (p *ChromeDPPage) ClickWithin(ctx context.Context, container string, index int, inner string) error {
	_, err := evalAs[bool](ctx, p, scriptClickWithin, map[string]any{"container": container, "index": index, "inner": inner})
	return err
}

func (p *ChromeDPPage) SetValue(ctx context.Context, selector string, index int, value string) error {
	_, err := evalAs[bool](ctx, p, scriptSetValue, map[string]any{"selector": selector, "index": index, "value": value})
	return err
}

func (p *ChromeDPPage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, p.timeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

func (p *ChromeDPPage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, p.timeout, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Close cancels the tab, then the browser process.
func (p *ChromeDPPage) Close() error {
	var err error
	if p.ctx != nil {
		err = chromedp.Cancel(p.ctx)
	}
	if p.browserCancel != nil {
		p.browserCancel()
	}
	if p.allocCancel != nil {
		p.allocCancel()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("browser cancel returned: %w", err)
	}
	return nil
}
