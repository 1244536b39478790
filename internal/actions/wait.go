package actions

import (
	"context"
	"time"
)

// settle waits for readySelector (when set) and then for delay.
// The readiness wait covers elements that exist; the delay covers CSS
// transitions that keep an attached element from taking clicks.
func (b *BlogAdmin) settle(ctx context.Context, readySelector string, delay time.Duration) error {
	if readySelector != "" {
		if err := b.page.WaitForSelector(ctx, readySelector, b.timeout); err != nil {
			return err
		}
	}
	return sleep(ctx, delay)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
