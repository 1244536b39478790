package interfaces

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when a wait for an element expires.
	ErrTimeout = errors.New("timed out waiting for element")
	// ErrNoElement is returned when a query that needs a target matched nothing.
	ErrNoElement = errors.New("no element matches selector")
)

// Page - browser page primitives used by the acceptance actions.
// Reads cross the host/page boundary by value and return typed results.
type Page interface {
	// Navigation and input
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	ClickText(ctx context.Context, label string) error
	Type(ctx context.Context, selector, text string) error
	Clear(ctx context.Context, selector string) error
	PressKey(ctx context.Context, key string) error
	Select(ctx context.Context, selector, value string) error
	UploadFile(ctx context.Context, selector, path string) error

	// WaitForSelector blocks until an element matching selector is attached or
	// timeout elapses, in which case the error wraps ErrTimeout.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error

	// DOM reads
	Count(ctx context.Context, selector string) (int, error)
	Text(ctx context.Context, selector string) (string, error)
	Values(ctx context.Context, selector string) ([]string, error)
	Disabled(ctx context.Context, selector string) (bool, error)
	TextsWithin(ctx context.Context, container, inner string) ([]string, error)

	// Indexed writes. A negative index counts from the last match.
	ClickWithin(ctx context.Context, container string, index int, inner string) error
	SetValue(ctx context.Context, selector string, index int, value string) error

	// Diagnostics
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)

	Close() error
}

// Well-known key names accepted by Page.PressKey.
const (
	KeyTab       = "Tab"
	KeyBackspace = "Backspace"
	KeyEnter     = "Enter"
)
