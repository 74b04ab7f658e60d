package loop

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ticks := 0

	err := Run(ctx, time.Millisecond, func(time.Time) {
		ticks++
		if ticks == 5 {
			cancel()
		}
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v; want context.Canceled", err)
	}
	if ticks < 5 {
		t.Fatalf("ticks = %d; want at least 5", ticks)
	}
}

func TestRun_FirstStepIsImmediate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	var first time.Duration

	_ = Run(ctx, time.Hour, func(time.Time) {
		first = time.Since(start)
		cancel()
	})

	if first > time.Second {
		t.Fatalf("first step after %v; want immediate", first)
	}
}
