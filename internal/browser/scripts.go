package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ternarybob/blogadmin/internal/interfaces"
)

// In-page queries. Each is a JS function of a single args object; the result
// travels back inside an envelope so failures thrown in the page arrive as
// typed errors instead of dynamic values.
const (
	scriptCount = `(a) => document.querySelectorAll(a.selector).length`

	scriptText = `(a) => {
		const el = document.querySelector(a.selector);
		if (!el) throw noElement(a.selector);
		return el.textContent;
	}`

	scriptValues = `(a) => Array.from(document.querySelectorAll(a.selector),
		(el) => (el.value === undefined || el.value === null) ? '' : String(el.value))`

	scriptDisabled = `(a) => {
		const el = document.querySelector(a.selector);
		if (!el) throw noElement(a.selector);
		return el.disabled === true;
	}`

	scriptTextsWithin = `(a) => Array.from(document.querySelectorAll(a.container), (c) => {
		const el = c.querySelector(a.inner);
		return el ? el.innerText : '';
	})`

	scriptClickWithin = `(a) => {
		const all = document.querySelectorAll(a.container);
		const i = a.index < 0 ? all.length + a.index : a.index;
		const c = all[i];
		if (!c) throw noElement(a.container + ' #' + a.index);
		const el = c.querySelector(a.inner);
		if (!el) throw noElement(a.inner);
		el.click();
		return true;
	}`

	scriptSetValue = `(a) => {
		const all = document.querySelectorAll(a.selector);
		const i = a.index < 0 ? all.length + a.index : a.index;
		const el = all[i];
		if (!el) throw noElement(a.selector + ' #' + a.index);
		el.value = a.value;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	}`

	scriptSelect = `(a) => {
		const el = document.querySelector(a.selector);
		if (!el) throw noElement(a.selector);
		el.value = a.value;
		if (el.value !== a.value) throw new Error('no option ' + a.value + ' in ' + a.selector);
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	}`

	scriptFocusSelect = `(a) => {
		const el = document.querySelector(a.selector);
		if (!el) throw noElement(a.selector);
		el.focus();
		if (typeof el.select === 'function') el.select();
		return true;
	}`

	// Marks the first visible element whose own text contains the label so a
	// real mouse click can be dispatched at it. Returns '' while nothing matches.
	scriptMarkLabel = `(a) => {
		const found = document.evaluate(a.xpath, document, null,
			XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		for (let i = 0; i < found.snapshotLength; i++) {
			const el = found.snapshotItem(i);
			if (el.getClientRects().length === 0) continue;
			el.setAttribute('data-blogadmin-click', a.marker);
			el.scrollIntoView({ block: 'center' });
			return a.marker;
		}
		return '';
	}`
)

// envelopeFunc wraps fn so it always returns a JSON string {ok, value, error, code}.
func envelopeFunc(fn string) string {
	return `(args) => {
	const noElement = (sel) => { const e = new Error('no element matches ' + sel); e.code = 'no_element'; return e; };
	try {
		const value = (` + fn + `)(args);
		return JSON.stringify({ ok: true, value: value === undefined ? null : value });
	} catch (e) {
		return JSON.stringify({ ok: false, error: String((e && e.message) || e), code: (e && e.code) || '' });
	}
}`
}

type envelope struct {
	OK    bool            `json:"ok"`
	Value json.RawMessage `json:"value"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

// scriptRunner executes a wrapped script in the page and returns the envelope JSON.
type scriptRunner interface {
	runScript(ctx context.Context, fn string, args map[string]any) (string, error)
}

// ScriptError is a failure thrown by in-page code.
type ScriptError struct {
	Message string
	Code    string
}

func (e *ScriptError) Error() string {
	return "page script failed: " + e.Message
}

func (e *ScriptError) Unwrap() error {
	if e.Code == "no_element" {
		return interfaces.ErrNoElement
	}
	return nil
}

// decodeEnvelope unmarshals the envelope produced by envelopeFunc into T.
func decodeEnvelope[T any](raw string) (T, error) {
	var zero T
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return zero, fmt.Errorf("failed to decode page result: %w", err)
	}
	if !env.OK {
		return zero, &ScriptError{Message: env.Error, Code: env.Code}
	}
	if len(env.Value) == 0 || string(env.Value) == "null" {
		return zero, nil
	}
	var value T
	if err := json.Unmarshal(env.Value, &value); err != nil {
		return zero, fmt.Errorf("unexpected page result %s: %w", string(env.Value), err)
	}
	return value, nil
}

func evalAs[T any](ctx context.Context, r scriptRunner, fn string, args map[string]any) (T, error) {
	raw, err := r.runScript(ctx, fn, args)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeEnvelope[T](raw)
}

// IsScriptError reports whether err came from code thrown inside the page.
func IsScriptError(err error) bool {
	var se *ScriptError
	return errors.As(err, &se)
}
