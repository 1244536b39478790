package browser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/blogadmin/internal/common"
	"github.com/ternarybob/blogadmin/internal/interfaces"
)

// PlaywrightPage drives a Chromium page through playwright-go.
// Playwright calls are synchronous; ctx is checked before each call.
type PlaywrightPage struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	page      playwright.Page
	timeout   time.Duration
	timeoutMS float64
	logger    arbor.ILogger
}

var _ interfaces.Page = (*PlaywrightPage)(nil)

// NewPlaywrightPage starts the Playwright driver and opens a Chromium page.
func NewPlaywrightPage(config *common.Config, logger arbor.ILogger) (*PlaywrightPage, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("playwright not available: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(config.Browser.Headless),
	}
	if config.Browser.NoSandbox {
		launch.Args = []string{"--no-sandbox"}
	}
	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch chromium: %w", err)
	}

	pageOpts := playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{
			Width:  config.Browser.WindowWidth,
			Height: config.Browser.WindowHeight,
		},
	}
	if config.Browser.UserAgent != "" {
		pageOpts.UserAgent = playwright.String(config.Browser.UserAgent)
	}
	page, err := browser.NewPage(pageOpts)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	timeout := config.Timing.WaitTimeoutDuration()
	timeoutMS := float64(timeout.Milliseconds())
	page.SetDefaultTimeout(timeoutMS)
	page.SetDefaultNavigationTimeout(timeoutMS)

	if config.Browser.Debug {
		page.OnConsole(func(msg playwright.ConsoleMessage) {
			logger.Trace().Str("type", msg.Type()).Msg("page console: " + msg.Text())
		})
	}

	logger.Debug().Bool("headless", config.Browser.Headless).Msg("Playwright page ready")

	return &PlaywrightPage{
		pw:        pw,
		browser:   browser,
		page:      page,
		timeout:   timeout,
		timeoutMS: timeoutMS,
		logger:    logger,
	}, nil
}

// mapErr converts Playwright timeouts to interfaces.ErrTimeout.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", interfaces.ErrTimeout, err)
	}
	return err
}

func (p *PlaywrightPage) runScript(ctx context.Context, fn string, args map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	result, err := p.page.Evaluate(envelopeFunc(fn), args)
	if err != nil {
		return "", mapErr(err)
	}
	raw, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected page result type %T", result)
	}
	return raw, nil
}

func (p *PlaywrightPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(p.timeoutMS),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, mapErr(err))
	}
	return nil
}

func (p *PlaywrightPage) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().Click(); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, mapErr(err))
	}
	return nil
}

func (p *PlaywrightPage) ClickText(ctx context.Context, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	locator := p.page.Locator("xpath=" + labelXPath(label)).Locator("visible=true").First()
	if err := locator.Click(); err != nil {
		return fmt.Errorf("failed to click element labelled %q: %w", label, mapErr(err))
	}
	return nil
}

func (p *PlaywrightPage) Type(ctx context.Context, selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().PressSequentially(text); err != nil {
		return fmt.Errorf("failed to type into %s: %w", selector, mapErr(err))
	}
	return nil
}

func (p *PlaywrightPage) Clear(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	locator := p.page.Locator(selector).First()
	if err := locator.Click(playwright.LocatorClickOptions{ClickCount: playwright.Int(3)}); err != nil {
		return fmt.Errorf("failed to clear %s: %w", selector, mapErr(err))
	}
	return p.PressKey(ctx, interfaces.KeyBackspace)
}

func (p *PlaywrightPage) PressKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Keyboard().Press(key); err != nil {
		return fmt.Errorf("failed to press %s: %w", key, mapErr(err))
	}
	return nil
}

func (p *PlaywrightPage) Select(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Locator(selector).First().SelectOption(playwright.SelectOptionValues{
		Values: playwright.StringSlice(value),
	})
	if err != nil {
		return fmt.Errorf("failed to select %q in %s: %w", value, selector, mapErr(err))
	}
	return nil
}

func (p *PlaywrightPage) UploadFile(ctx context.Context, selector, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve upload file %s: %w", path, err)
	}
	if err := p.page.Locator(selector).First().SetInputFiles([]string{abs}); err != nil {
		return fmt.Errorf("failed to upload %s via %s: %w", abs, selector, mapErr(err))
	}
	return nil
}

func (p *PlaywrightPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = p.timeout
	}
	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", selector, mapErr(err))
	}
	return nil
}

func (p *PlaywrightPage) Count(ctx context.Context, selector string) (int, error) {
	return evalAs[int](ctx, p, scriptCount, map[string]any{"selector": selector})
}

func (p *PlaywrightPage) Text(ctx context.Context, selector string) (string, error) {
	return evalAs[string](ctx, p, scriptText, map[string]any{"selector": selector})
}

func (p *PlaywrightPage) Values(ctx context.Context, selector string) ([]string, error) {
	return evalAs[[]string](ctx, p, scriptValues, map[string]any{"selector": selector})
}

func (p *PlaywrightPage) Disabled(ctx context.Context, selector string) (bool, error) {
	return evalAs[bool](ctx, p, scriptDisabled, map[string]any{"selector": selector})
}

func (p *PlaywrightPage) TextsWithin(ctx context.Context, container, inner string) ([]string, error) {
	return evalAs[[]string](ctx, p, scriptTextsWithin, map[string]any{"container": container, "inner": inner})
}

func (p *PlaywrightPage) ClickWithin(ctx context.Context, container string, index int, inner string) error {
	_, err := evalAs[bool](ctx, p, scriptClickWithin, map[string]any{"container": container, "index": index, "inner": inner})
	return err
}

func (p *PlaywrightPage) SetValue(ctx context.Context, selector string, index int, value string) error {
	_, err := evalAs[bool](ctx, p, scriptSetValue, map[string]any{"selector": selector, "index": index, "value": value})
	return err
}

func (p *PlaywrightPage) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := p.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

func (p *PlaywrightPage) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

func (p *PlaywrightPage) Close() error {
	var errs []error
	if p.browser != nil {
		errs = append(errs, p.browser.Close())
	}
	if p.pw != nil {
		errs = append(errs, p.pw.Stop())
	}
	return errors.Join(errs...)
}
