package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryStore is the process-local quota table: one fixed-window counter per
// caller key, guarded by a single mutex so concurrent requests for the same
// key cannot both slip under the limit.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory quota table.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Check implements Store.
func (s *MemoryStore) Check(_ context.Context, key string, limit int, windowDur time.Duration) (Result, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(windowDur)}
		s.windows[key] = w
		return Result{OK: true, Remaining: limit - 1, ResetAt: w.resetAt}, nil
	}
	if w.count >= limit {
		return Result{OK: false, Remaining: 0, ResetAt: w.resetAt}, nil
	}
	w.count++
	return Result{OK: true, Remaining: limit - w.count, ResetAt: w.resetAt}, nil
}

// Sweep evicts entries whose window has already elapsed and returns how many
// were removed. Without it the table grows with every distinct caller
// address ever seen.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for k, w := range s.windows {
		if now.After(w.resetAt) {
			delete(s.windows, k)
			evicted++
		}
	}
	return evicted
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := s.Sweep(); n > 0 {
					logger.Debug("ratelimit.sweep", "evicted", n)
				}
			}
		}
	}()
}

// Len reports the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
