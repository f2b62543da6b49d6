package ratelimit

import (
	"context"
	"sync"
	"time"
)

type clientWindow struct {
	count   int
	resetAt time.Time
}

// memoryStore keeps windows in a mutex-guarded map. The mutex also keeps the
// sweep from racing an in-flight take on the same key.
type memoryStore struct {
	mu      sync.Mutex
	windows map[string]*clientWindow

	now func() time.Time
}

// NewMemoryStore creates an in-process window store.
func NewMemoryStore() Store {
	return &memoryStore{
		windows: make(map[string]*clientWindow),
		now:     time.Now,
	}
}

func (s *memoryStore) Take(_ context.Context, key string, max int, window time.Duration) (bool, int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &clientWindow{count: 1, resetAt: now.Add(window)}
		s.windows[key] = w
		return true, 1, w.resetAt, nil
	}
	if w.count < max {
		w.count++
		return true, w.count, w.resetAt, nil
	}
	return false, w.count, w.resetAt, nil
}

func (s *memoryStore) Sweep(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, w := range s.windows {
		if now.After(w.resetAt) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
