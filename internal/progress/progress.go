// Package progress periodically logs how many jobs are done. It reports on
// every tick while jobs complete and backs off exponentially while nothing
// moves.
package progress

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultTick     = time.Second
	DefaultMaxDelay = 30 * time.Second
)

type Reporter struct {
	Total    int
	Progress func() int64  // completed jobs, must be safe for concurrent use
	Timeout  time.Duration // per job, informational
	Tick     time.Duration
	MaxDelay time.Duration
	Logger   *slog.Logger
}

// Run blocks until ctx is canceled.
func (r Reporter) Run(ctx context.Context) {
	tickEvery := or(r.Tick, DefaultTick)
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	delays := backoff.NewExponentialBackOff()
	delays.InitialInterval = tickEvery
	delays.RandomizationFactor = 0
	delays.Multiplier = 2
	delays.MaxInterval = or(r.MaxDelay, DefaultMaxDelay)
	delays.MaxElapsedTime = 0
	delays.Reset()

	ticker := time.NewTicker(tickEvery)
	defer ticker.Stop()

	start := time.Now()
	lastReport := start
	delay := delays.NextBackOff()
	var last int64

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		done := r.Progress()
		now := time.Now()
		switch {
		case done != last:
			last = done
			delays.Reset()
			delay = delays.NextBackOff()
		case now.Sub(lastReport) >= delay:
			delay = delays.NextBackOff()
		default:
			continue
		}
		lastReport = now
		logger.DebugContext(ctx, "progress",
			"done", done,
			"total", r.Total,
			"elapsed_s", int64(now.Sub(start)/time.Second),
			"timeout_s", int64(r.Timeout/time.Second),
		)
	}
}

func or(d, dflt time.Duration) time.Duration {
	if d <= 0 {
		return dflt
	}
	return d
}
