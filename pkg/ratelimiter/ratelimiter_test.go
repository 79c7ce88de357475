package ratelimiter

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
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

func newTestLimiter(t *testing.T) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(0)
	rl.now = clock.Now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiter_Allow(t *testing.T) {
	rl, _ := newTestLimiter(t)
	rl.SetPolicy("send_test", 3, time.Hour)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("send_test", "user-1"), "attempt %d", i+1)
	}
	assert.False(t, rl.Allow("send_test", "user-1"))

	// keys are independent
	assert.True(t, rl.Allow("send_test", "user-2"))
}

func TestRateLimiter_Allow_NoPolicy(t *testing.T) {
	rl, _ := newTestLimiter(t)
	assert.False(t, rl.Allow("unknown", "user-1"))

	rl.SetPolicy("zero", 0, time.Minute)
	assert.False(t, rl.Allow("zero", "user-1"))
}

func TestRateLimiter_Allow_WindowSlides(t *testing.T) {
	rl, clock := newTestLimiter(t)
	rl.SetPolicy("send_test", 2, time.Minute)

	require.True(t, rl.Allow("send_test", "u"))
	clock.Advance(30 * time.Second)
	require.True(t, rl.Allow("send_test", "u"))
	require.False(t, rl.Allow("send_test", "u"))

	// first event leaves the window
	clock.Advance(31 * time.Second)
	assert.True(t, rl.Allow("send_test", "u"))
	assert.False(t, rl.Allow("send_test", "u"))
}

func TestRateLimiter_DeniedEventsNotCounted(t *testing.T) {
	rl, clock := newTestLimiter(t)
	rl.SetPolicy("ns", 1, time.Minute)

	require.True(t, rl.Allow("ns", "k"))
	for i := 0; i < 5; i++ {
		require.False(t, rl.Allow("ns", "k"))
		clock.Advance(5 * time.Second)
	}

	clock.Advance(36 * time.Second)
	assert.True(t, rl.Allow("ns", "k"))
}

func TestRateLimiter_RetryAfter(t *testing.T) {
	rl, clock := newTestLimiter(t)
	rl.SetPolicy("ns", 2, time.Minute)

	assert.Equal(t, time.Duration(0), rl.RetryAfter("ns", "k"))

	rl.Allow("ns", "k")
	assert.Equal(t, time.Duration(0), rl.RetryAfter("ns", "k"), "not limited yet")

	clock.Advance(10 * time.Second)
	rl.Allow("ns", "k")
	clock.Advance(500 * time.Millisecond)

	// oldest event expires in 49.5s
	assert.Equal(t, 50*time.Second, rl.RetryAfter("ns", "k"))

	clock.Advance(50 * time.Second)
	assert.Equal(t, time.Duration(0), rl.RetryAfter("ns", "k"))
	assert.Equal(t, time.Duration(0), rl.RetryAfter("missing", "k"))
}

func TestRateLimiter_Reset(t *testing.T) {
	rl, _ := newTestLimiter(t)
	rl.SetPolicy("ns", 1, time.Hour)

	require.True(t, rl.Allow("ns", "k"))
	require.False(t, rl.Allow("ns", "k"))

	rl.Reset("ns", "k")
	assert.True(t, rl.Allow("ns", "k"))
}

func TestRateLimiter_NamespacesAreIsolated(t *testing.T) {
	rl, _ := newTestLimiter(t)
	rl.SetPolicy("a", 1, time.Hour)
	rl.SetPolicy("b", 1, time.Hour)

	require.True(t, rl.Allow("a", "k"))
	assert.False(t, rl.Allow("a", "k"))
	assert.True(t, rl.Allow("b", "k"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl, clock := newTestLimiter(t)
	rl.SetPolicy("short", 5, time.Minute)
	rl.SetPolicy("long", 5, time.Hour)

	rl.Allow("short", "k")
	rl.Allow("long", "k")
	rl.events["gone:k"] = []time.Time{clock.Now()}

	clock.Advance(2 * time.Minute)
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.events, "short:k")
	assert.NotContains(t, rl.events, "gone:k")
	assert.Contains(t, rl.events, "long:k")
}

func TestRateLimiter_SweepLoopStops(t *testing.T) {
	rl := NewRateLimiter(5 * time.Millisecond)
	rl.SetPolicy("ns", 1, time.Millisecond)
	rl.Allow("ns", "k")

	assert.Eventually(t, func() bool {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		return len(rl.events) == 0
	}, time.Second, 10*time.Millisecond)

	rl.Stop()
	rl.Stop()
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl, _ := newTestLimiter(t)
	rl.SetPolicy("ns", 50, time.Hour)

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if rl.Allow("ns", "shared") {
				atomic.AddInt64(&allowed, 1)
			}
			rl.Allow("ns", fmt.Sprintf("own-%d", i))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(50), allowed)
}

func TestRateLimiter_ImplementsLimiter(t *testing.T) {
	var _ Limiter = NewRateLimiter(0)
}
