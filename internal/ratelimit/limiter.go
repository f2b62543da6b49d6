// Package ratelimit throttles API traffic with a fixed-window counter.
//
// The window is wall-clock based and non-sliding: a client that spends its
// whole budget in the last moment of a window may spend a fresh budget
// immediately after the boundary. That edge is accepted, not mitigated.
package ratelimit

import (
	"context"
	"time"

	"github.com/soley-bot/acadex-sub007/internal/observability"
)

// Result is the outcome of a single rate-limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter applies a fixed request budget per window to a client key. It owns
// a background sweep that drops expired windows from the store so abandoned
// client keys do not accumulate.
type Limiter struct {
	store  Store
	max    int
	window time.Duration
	logger *observability.Logger

	stop chan struct{}
	done chan struct{}
}

// New builds a limiter and starts its sweeper. Pass sweepEvery <= 0 to run
// without one (the redis store expires keys natively).
func New(store Store, max int, window, sweepEvery time.Duration, logger *observability.Logger) *Limiter {
	l := &Limiter{
		store:  store,
		max:    max,
		window: window,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	if sweepEvery > 0 {
		go l.sweepLoop(sweepEvery)
	} else {
		close(l.done)
	}
	return l
}

// Check records one request for key and reports whether it fits the budget.
// Remaining and ResetAt are populated on both outcomes so callers can emit
// quota headers and a machine-readable backoff hint.
func (l *Limiter) Check(ctx context.Context, key string) (Result, error) {
	allowed, count, resetAt, err := l.store.Take(ctx, key, l.max, l.window)
	if err != nil {
		return Result{}, err
	}
	remaining := l.max - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: allowed, Limit: l.max, Remaining: remaining, ResetAt: resetAt}, nil
}

// Stop cancels the sweeper and closes the store.
func (l *Limiter) Stop() {
	close(l.stop)
	<-l.done
	if err := l.store.Close(); err != nil {
		l.logger.Warnw("closing rate limit store", "err", err)
	}
}

func (l *Limiter) sweepLoop(every time.Duration) {
	defer close(l.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := l.store.Sweep(context.Background()); n > 0 {
				l.logger.Debugw("swept expired rate limit windows", "removed", n)
			}
		case <-l.stop:
			return
		}
	}
}
