package timex

import (
	"context"
	"time"
)

// NowAndEvery invokes do immediately and then once per interval until the
// context is done or do returns an error.
func NowAndEvery(ctx context.Context, d time.Duration, do func(context.Context) error) error {
	if err := do(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(d)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := do(ctx); err != nil {
				return err
			}
		}
	}
}
