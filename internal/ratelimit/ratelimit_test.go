package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestNew(t *testing.T) {
	t.Parallel()
	l := New(10, 5)
	assert.InDelta(t, 10, l.maxTokens, 0)
	assert.InDelta(t, 5, l.refillRate, 0)
	assert.InDelta(t, 10, l.tokens, 0)
}

func TestPerMinute(t *testing.T) {
	t.Parallel()
	tests := []struct {
		perMinute float64
		burst     float64
		rate      float64
	}{
		{60, 6, 1},
		{30, 3, 0.5},
		{5, 1, 5.0 / 60},
		{0.5, 1, 0.5 / 60},
	}
	for _, tt := range tests {
		burst, rate := PerMinute(tt.perMinute)
		assert.InDelta(t, tt.burst, burst, 1e-9, "burst for %v", tt.perMinute)
		assert.InDelta(t, tt.rate, rate, 1e-9, "rate for %v", tt.perMinute)
	}

	l := NewPerMinute(60)
	assert.InDelta(t, 6, l.maxTokens, 0)
}

func TestAllow(t *testing.T) {
	t.Parallel()

	t.Run("allows up to burst", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		l := newWithClock(3, 1, clock.Now)
		for i := range 3 {
			assert.True(t, l.Allow(), "attempt %d", i+1)
		}
		assert.False(t, l.Allow())
	})

	t.Run("refills over time", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		l := newWithClock(1, 2, clock.Now)
		require.True(t, l.Allow())
		require.False(t, l.Allow())

		clock.Advance(500 * time.Millisecond)
		assert.True(t, l.Allow())
	})

	t.Run("never exceeds capacity", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		l := newWithClock(2, 10, clock.Now)
		clock.Advance(time.Hour)
		assert.InDelta(t, 2, l.Available(), 1e-9)
		assert.True(t, l.IsFull())
	})
}

func TestRetryAfter(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := newWithClock(1, 0.5, clock.Now)

	assert.Zero(t, l.RetryAfter())
	require.True(t, l.Allow())
	assert.Equal(t, 2*time.Second, l.RetryAfter())

	clock.Advance(1500 * time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, l.RetryAfter())
	assert.False(t, l.IsFull())
}

func TestAllow_Concurrent(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := newWithClock(50, 0, clock.Now)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Go(func() {
			if l.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}
