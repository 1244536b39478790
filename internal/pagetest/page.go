// Package pagetest provides an in-memory interfaces.Page backed by goquery
// documents. Tests register HTML per URL and attach hooks that mutate the
// document when controls are clicked, which is enough to simulate the pages
// the acceptance actions drive without starting a browser.
package pagetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/blogadmin/internal/interfaces"
)

// Call records one Page method invocation.
type Call struct {
	Method string
	Args   []string
}

func (c Call) String() string {
	return c.Method + "(" + strings.Join(c.Args, ", ") + ")"
}

// Hook runs after a matching interaction. target is the element acted on
// (nil for navigation).
type Hook func(p *Page, target *goquery.Selection) error

type hookKey struct {
	kind string // navigate, click, text, type, upload
	key  string
}

// Page is a scripted, single-document page. It never waits: a selector that
// does not match when asked for behaves like a wait that timed out.
type Page struct {
	mu      sync.Mutex
	pages   map[string]string
	url     string
	doc     *goquery.Document
	calls   []Call
	hooks   map[hookKey][]Hook
	uploads []string
	closed  bool
}

var _ interfaces.Page = (*Page)(nil)

// New creates an empty page showing about:blank.
func New() *Page {
	p := &Page{
		pages: map[string]string{},
		hooks: map[hookKey][]Hook{},
		url:   "about:blank",
	}
	p.doc, _ = goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	return p
}

// Register sets the HTML served for url on the next Navigate.
func (p *Page) Register(url, html string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages[url] = html
	return p
}

// SetHTML replaces the current document without navigating.
func (p *Page) SetHTML(html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
	return nil
}

// Doc exposes the current document for assertions and hooks.
func (p *Page) Doc() *goquery.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc
}

// URL returns the last navigated URL.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// OnNavigate runs fn after Navigate(url) loaded the registered document.
func (p *Page) OnNavigate(url string, fn Hook) *Page {
	return p.on("navigate", url, fn)
}

// OnClick runs fn after Click(selector), or after ClickWithin whose inner
// selector equals selector.
func (p *Page) OnClick(selector string, fn Hook) *Page {
	return p.on("click", selector, fn)
}

// OnClickText runs fn after ClickText(label).
func (p *Page) OnClickText(label string, fn Hook) *Page {
	return p.on("text", label, fn)
}

// OnType runs fn after Type or Clear changed the element matched by selector.
func (p *Page) OnType(selector string, fn Hook) *Page {
	return p.on("type", selector, fn)
}

// OnUpload runs fn after UploadFile(selector, ...).
func (p *Page) OnUpload(selector string, fn Hook) *Page {
	return p.on("upload", selector, fn)
}

func (p *Page) on(kind, key string, fn Hook) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := hookKey{kind: kind, key: key}
	p.hooks[k] = append(p.hooks[k], fn)
	return p
}

func (p *Page) fire(kind, key string, target *goquery.Selection) error {
	p.mu.Lock()
	hooks := append([]Hook(nil), p.hooks[hookKey{kind: kind, key: key}]...)
	p.mu.Unlock()
	for _, fn := range hooks {
		if err := fn(p, target); err != nil {
			return err
		}
	}
	return nil
}

func (p *Page) record(method string, args ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Method: method, Args: args})
}

// Calls returns every recorded invocation in order.
func (p *Page) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// Called reports whether method was invoked with args as a prefix of its arguments.
func (p *Page) Called(method string, args ...string) bool {
	for _, c := range p.Calls() {
		if c.Method != method || len(c.Args) < len(args) {
			continue
		}
		match := true
		for i, a := range args {
			if c.Args[i] != a {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Uploads lists the files passed to UploadFile.
func (p *Page) Uploads() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.uploads...)
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) find(selector string) *goquery.Selection {
	return p.Doc().Find(selector)
}

func missing(selector string) error {
	return fmt.Errorf("waiting for %s: %w", selector, interfaces.ErrTimeout)
}

func noElement(selector string) error {
	return fmt.Errorf("%w: %s", interfaces.ErrNoElement, selector)
}

// resolveIndex applies the negative-from-end convention of interfaces.Page.
func resolveIndex(index, length int) (int, bool) {
	if index < 0 {
		index += length
	}
	return index, index >= 0 && index < length
}

func isDisabled(s *goquery.Selection) bool {
	_, disabled := s.Attr("disabled")
	return disabled
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record("Navigate", url)
	p.mu.Lock()
	html, ok := p.pages[url]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("failed to navigate to %s: no document registered", url)
	}
	if err := p.SetHTML(html); err != nil {
		return err
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return p.fire("navigate", url, nil)
}

// Click does nothing to a disabled control, as a browser would.
func (p *Page) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record("Click", selector)
	target := p.find(selector).First()
	if target.Length() == 0 {
		return fmt.Errorf("failed to click %s: %w", selector, missing(selector))
	}
	if isDisabled(target) {
		return nil
	}
	return p.fire("click", selector, target)
}

// ClickText clicks the first element whose own text contains label. Disabled
// controls ignore the click.
func (p *Page) ClickText(ctx context.Context, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record("ClickText", label)
	target := p.findByOwnText(label)
	if target == nil {
		return fmt.Errorf("failed to click element labelled %q: %w", label, missing(label))
	}
	if isDisabled(target) {
		return nil
	}
	return p.fire("text", label, target)
}

// findByOwnText mirrors //*[contains(text(), label)]: only direct text nodes count.
func (p *Page) findByOwnText(label string) *goquery.Selection {
	var found *goquery.Selection
	p.Doc().Find("body *").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		s.Contents().EachWithBreak(func(_ int, c *goquery.Selection) bool {
			if goquery.NodeName(c) == "#text" && strings.Contains(c.Text(), label) {
				found = s
				return false
			}
			return true
		})
		return found == nil
	})
	return found
}

func (p *Page) Type(ctx context.Context, selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record("Type", selector, text)
	target := p.find(selector).First()
	if target.Length() == 0 {
		return fmt.Errorf("failed to type into %s: %w", selector, missing(selector))
	}
	setFieldValue(target, fieldValue(target)+text)
	return p.fire("type", selector, target)
}

func (p *Page) Clear(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record("Clear", selector)
	target := p.find(selector).First()
	if target.Length() == 0 {
		return fmt.Errorf("failed to clear %s: %w", selector, missing(selector))
	}
	setFieldValue(target, "")
	return p.fire("type", selector, target)
}

func (p *Page) PressKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record("PressKey", key)
	return nil
}

func (p *Page) Select(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record("Select", selector, value)
	target := p.find(selector).First()
	if target.Length() == 0 {
		return fmt.Errorf("failed to select %q in %s: %w", value, selector, missing(selector))
	}
	option := target.Find(fmt.Sprintf(`option[value=%q]`, value))
	if option.Length() == 0 {
		return fmt.Errorf("failed to select %q in %s: no such option", value, selector)
	}
	target.Find("option").RemoveAttr("selected")
	option.SetAttr("selected", "selected")
	target.SetAttr("value", value)
	return nil
}

func (p *Page) UploadFile(ctx context.Context, selector, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record("UploadFile", selector, path)
	if p.find(selector).Length() == 0 {
		return fmt.Errorf("failed to upload %s via %s: %w", path, selector, missing(selector))
	}
	p.mu.Lock()
	p.uploads = append(p.uploads, path)
	p.mu.Unlock()
	return p.fire("upload", selector, p.find(selector).First())
}

func (p *Page) WaitForSelector(ctx context.Context, selector string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record("WaitForSelector", selector)
	if p.find(selector).Length() == 0 {
		return missing(selector)
	}
	return nil
}

func (p *Page) Count(ctx context.Context, selector string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.record("Count", selector)
	return p.find(selector).Length(), nil
}

func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.record("Text", selector)
	target := p.find(selector).First()
	if target.Length() == 0 {
		return "", noElement(selector)
	}
	return target.Text(), nil
}

func (p *Page) Values(ctx context.Context, selector string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.record("Values", selector)
	values := []string{}
	p.find(selector).Each(func(_ int, s *goquery.Selection) {
		values = append(values, fieldValue(s))
	})
	return values, nil
}

func (p *Page) Disabled(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.record("Disabled", selector)
	target := p.find(selector).First()
	if target.Length() == 0 {
		return false, noElement(selector)
	}
	return isDisabled(target), nil
}

func (p *Page) TextsWithin(ctx context.Context, container, inner string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.record("TextsWithin", container, inner)
	texts := []string{}
	p.find(container).Each(func(_ int, c *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(c.Find(inner).First().Text()))
	})
	return texts, nil
}

func (p *Page) ClickWithin(ctx context.Context, container string, index int, inner string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record("ClickWithin", container, fmt.Sprint(index), inner)
	all := p.find(container)
	i, ok := resolveIndex(index, all.Length())
	if !ok {
		return noElement(fmt.Sprintf("%s #%d", container, index))
	}
	target := all.Eq(i).Find(inner).First()
	if target.Length() == 0 {
		return noElement(inner)
	}
	if isDisabled(target) {
		return nil
	}
	return p.fire("click", inner, target)
}

func (p *Page) SetValue(ctx context.Context, selector string, index int, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.record("SetValue", selector, fmt.Sprint(index), value)
	all := p.find(selector)
	i, ok := resolveIndex(index, all.Length())
	if !ok {
		return noElement(fmt.Sprintf("%s #%d", selector, index))
	}
	setFieldValue(all.Eq(i), value)
	return nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return goquery.OuterHtml(p.Doc().Selection)
}

// Screenshot returns a fixed placeholder; there is nothing rendered to capture.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte("pagetest-screenshot"), nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// fieldValue reads the current value of an input-like element.
// Textareas and non-form elements keep their value as text.
func fieldValue(s *goquery.Selection) string {
	switch goquery.NodeName(s) {
	case "input", "select":
		return s.AttrOr("value", "")
	default:
		return s.Text()
	}
}

func setFieldValue(s *goquery.Selection, value string) {
	switch goquery.NodeName(s) {
	case "input", "select":
		s.SetAttr("value", value)
	default:
		s.SetText(value)
	}
}
