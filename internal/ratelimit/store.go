package ratelimit

import (
	"context"
	"time"
)

// Store holds per-client fixed windows. Implementations must apply the
// take atomically: a denied request must not advance the window count.
type Store interface {
	// Take records one request for key inside the current window.
	// A fresh window is opened when none exists or the previous one has
	// expired. Returns whether the request fits the budget, the count
	// observed so far, and the instant the window resets.
	Take(ctx context.Context, key string, max int, window time.Duration) (allowed bool, count int, resetAt time.Time, err error)

	// Sweep removes windows whose reset time has passed and reports how
	// many were dropped. Stores with native expiry may treat it as a no-op.
	Sweep(ctx context.Context) int

	Close() error
}
