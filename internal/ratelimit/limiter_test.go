package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/soley-bot/acadex-sub007/internal/observability"
)

// fakeClock drives the memory store deterministically.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(t *testing.T, max int, window time.Duration) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := NewMemoryStore().(*memoryStore)
	store.now = clock.Now
	l := New(store, max, window, 0, observability.NewNopLogger())
	t.Cleanup(l.Stop)
	return l, clock
}

func TestWindowAdmitsUpToBudget(t *testing.T) {
	l, _ := newTestLimiter(t, 100, time.Minute)
	for i := 0; i < 100; i++ {
		res, err := l.Check(context.Background(), "1.2.3.4")
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
}

func TestWindowDeniesBeyondBudget(t *testing.T) {
	l, clock := newTestLimiter(t, 100, time.Minute)
	start := clock.Now()
	for i := 0; i < 100; i++ {
		if res, _ := l.Check(context.Background(), "1.2.3.4"); !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	res, err := l.Check(context.Background(), "1.2.3.4")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Allowed {
		t.Fatal("request 101 should be denied")
	}
	if want := start.Add(time.Minute); !res.ResetAt.Equal(want) {
		t.Fatalf("reset time drifted: got %v want %v", res.ResetAt, want)
	}
	if res.Remaining != 0 {
		t.Fatalf("remaining should be 0, got %d", res.Remaining)
	}

	// Denied requests must not extend or advance the window.
	res2, _ := l.Check(context.Background(), "1.2.3.4")
	if res2.Allowed || !res2.ResetAt.Equal(start.Add(time.Minute)) {
		t.Fatalf("denied retry changed window state: %+v", res2)
	}
}

func TestWindowRollover(t *testing.T) {
	l, clock := newTestLimiter(t, 2, time.Minute)
	l.Check(context.Background(), "k")
	l.Check(context.Background(), "k")
	if res, _ := l.Check(context.Background(), "k"); res.Allowed {
		t.Fatal("third request should be denied")
	}

	clock.Advance(time.Minute + time.Millisecond)
	res, _ := l.Check(context.Background(), "k")
	if !res.Allowed {
		t.Fatal("request after window expiry should start a fresh window")
	}
	if want := clock.Now().Add(time.Minute); !res.ResetAt.Equal(want) {
		t.Fatalf("fresh window reset unexpected: got %v want %v", res.ResetAt, want)
	}
	if res.Remaining != 1 {
		t.Fatalf("fresh window should have 1 remaining, got %d", res.Remaining)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Minute)
	if res, _ := l.Check(context.Background(), "a"); !res.Allowed {
		t.Fatal("first key should be admitted")
	}
	if res, _ := l.Check(context.Background(), "a"); res.Allowed {
		t.Fatal("first key should now be throttled")
	}
	if res, _ := l.Check(context.Background(), "b"); !res.Allowed {
		t.Fatal("second key has its own budget")
	}
}

func TestSweepDropsExpiredWindows(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := NewMemoryStore().(*memoryStore)
	store.now = clock.Now

	store.Take(context.Background(), "stale", 10, time.Minute)
	clock.Advance(30 * time.Second)
	store.Take(context.Background(), "live", 10, time.Minute)
	clock.Advance(45 * time.Second) // "stale" expired, "live" has 15s left

	if removed := store.Sweep(context.Background()); removed != 1 {
		t.Fatalf("expected 1 swept window, got %d", removed)
	}
	if store.len() != 1 {
		t.Fatalf("expected 1 remaining window, got %d", store.len())
	}
}

func TestSweeperRunsAndStops(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := NewMemoryStore().(*memoryStore)
	store.now = clock.Now
	store.Take(context.Background(), "k", 10, time.Millisecond)
	clock.Advance(time.Second)

	l := New(store, 10, time.Minute, 5*time.Millisecond, observability.NewNopLogger())
	deadline := time.After(2 * time.Second)
	for store.len() != 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper never removed the expired window")
		case <-time.After(5 * time.Millisecond):
		}
	}
	l.Stop() // must not hang
}
