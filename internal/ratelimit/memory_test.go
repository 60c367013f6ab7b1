package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(start time.Time) (*MemoryStore, *time.Time) {
	now := start
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	return s, &now
}

func TestMemoryStore_FixedWindow(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	const limit = 20
	window := 24 * time.Hour

	t.Run("21st call within the window is rejected", func(t *testing.T) {
		s, _ := newTestStore(base)
		for i := 0; i < limit; i++ {
			res, err := s.Check(ctx, "1.2.3.4", limit, window)
			require.NoError(t, err)
			assert.True(t, res.OK, "call %d should be admitted", i+1)
			assert.Equal(t, limit-1-i, res.Remaining)
		}
		res, err := s.Check(ctx, "1.2.3.4", limit, window)
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.Zero(t, res.Remaining)
		assert.Equal(t, base.Add(window), res.ResetAt)
	})

	t.Run("rejected calls do not extend or consume the window", func(t *testing.T) {
		s, _ := newTestStore(base)
		for i := 0; i < limit+5; i++ {
			_, err := s.Check(ctx, "k", limit, window)
			require.NoError(t, err)
		}
		res, err := s.Check(ctx, "k", limit, window)
		require.NoError(t, err)
		assert.Equal(t, base.Add(window), res.ResetAt)
	})

	t.Run("window reset readmits with count 1", func(t *testing.T) {
		s, now := newTestStore(base)
		for i := 0; i < limit; i++ {
			_, err := s.Check(ctx, "k", limit, window)
			require.NoError(t, err)
		}
		*now = base.Add(window + time.Millisecond)
		res, err := s.Check(ctx, "k", limit, window)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, limit-1, res.Remaining)
		assert.Equal(t, now.Add(window), res.ResetAt)
	})

	t.Run("keys are independent", func(t *testing.T) {
		s, _ := newTestStore(base)
		for i := 0; i < limit; i++ {
			_, err := s.Check(ctx, "a", limit, window)
			require.NoError(t, err)
		}
		res, err := s.Check(ctx, "b", limit, window)
		require.NoError(t, err)
		assert.True(t, res.OK)
	})
}

// The fixed-window design admits up to 2x the limit inside a window-length
// interval straddling a reset boundary. That burst tolerance is part of the
// published behavior; this test pins it so nobody "fixes" it to a sliding
// window by accident.
func TestMemoryStore_BoundaryBurstTolerance(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	const limit = 20
	window := 24 * time.Hour

	s, now := newTestStore(base)

	admitted := 0
	for i := 0; i < limit; i++ {
		res, err := s.Check(ctx, "k", limit, window)
		require.NoError(t, err)
		if res.OK {
			admitted++
		}
	}

	// Just past the boundary: a full fresh budget is available immediately.
	*now = base.Add(window + time.Second)
	for i := 0; i < limit; i++ {
		res, err := s.Check(ctx, "k", limit, window)
		require.NoError(t, err)
		if res.OK {
			admitted++
		}
	}

	assert.Equal(t, 2*limit, admitted)
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	s, now := newTestStore(base)

	_, err := s.Check(ctx, "old", 20, time.Minute)
	require.NoError(t, err)
	_, err = s.Check(ctx, "fresh", 20, 2*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	*now = base.Add(time.Hour)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
}
