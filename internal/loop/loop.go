// Package loop runs a node's cooperative tick on a fixed period.
package loop

import (
	"context"
	"time"
)

// Run calls step every period until ctx is done, then returns ctx.Err().
// A slow step delays the next tick rather than queueing ticks up.
func Run(ctx context.Context, period time.Duration, step func(now time.Time)) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	step(time.Now())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			step(now)
		}
	}
}
