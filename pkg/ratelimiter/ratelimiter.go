package ratelimiter

import (
	"strings"
	"sync"
	"time"
)

// Policy is a sliding window quota: at most Max events per Window
type Policy struct {
	Max    int
	Window time.Duration
}

// Limiter is the part of RateLimiter that services depend on
type Limiter interface {
	Allow(namespace, key string) bool
	RetryAfter(namespace, key string) time.Duration
}

// RateLimiter counts events per namespace and key in memory. Each namespace
// has its own policy; keys in a namespace without a policy are always denied.
//
//	rl := ratelimiter.NewRateLimiter(time.Minute)
//	rl.SetPolicy("send_test", 20, time.Hour)
//
//	if !rl.Allow("send_test", userID) {
//	    wait := rl.RetryAfter("send_test", userID)
//	    ...
//	}
type RateLimiter struct {
	mu       sync.Mutex
	events   map[string][]time.Time
	policies map[string]Policy

	stop     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewRateLimiter starts a limiter whose expired keys are swept every
// sweepInterval. A zero interval disables sweeping.
func NewRateLimiter(sweepInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		events:   make(map[string][]time.Time),
		policies: make(map[string]Policy),
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	if sweepInterval > 0 {
		go rl.sweepLoop(sweepInterval)
	}
	return rl
}

func (rl *RateLimiter) SetPolicy(namespace string, max int, window time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.policies[namespace] = Policy{Max: max, Window: window}
}

func compositeKey(namespace, key string) string {
	return namespace + ":" + key
}

// live drops events older than the window and returns what is left
func live(events []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(events) && !events[i].After(cutoff) {
		i++
	}
	return events[i:]
}

// Allow records an event and reports whether it fits the namespace policy.
// Denied events are not recorded.
func (rl *RateLimiter) Allow(namespace, key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	policy, ok := rl.policies[namespace]
	if !ok || policy.Max <= 0 {
		return false
	}

	now := rl.now()
	ck := compositeKey(namespace, key)
	events := live(rl.events[ck], now.Add(-policy.Window))

	if len(events) >= policy.Max {
		rl.events[ck] = events
		return false
	}

	rl.events[ck] = append(events, now)
	return true
}

// RetryAfter returns how long until the oldest counted event leaves the
// window, rounded up to the second. Zero means the key is not limited.
func (rl *RateLimiter) RetryAfter(namespace, key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	policy, ok := rl.policies[namespace]
	if !ok {
		return 0
	}

	now := rl.now()
	events := live(rl.events[compositeKey(namespace, key)], now.Add(-policy.Window))
	if len(events) < policy.Max || len(events) == 0 {
		return 0
	}

	wait := events[0].Add(policy.Window).Sub(now)
	if wait <= 0 {
		return 0
	}
	return wait.Truncate(time.Second) + time.Second
}

// Reset forgets every event recorded for key
func (rl *RateLimiter) Reset(namespace, key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.events, compositeKey(namespace, key))
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ck, events := range rl.events {
		namespace, _, _ := strings.Cut(ck, ":")
		policy, ok := rl.policies[namespace]
		if !ok || len(live(events, now.Add(-policy.Window))) == 0 {
			delete(rl.events, ck)
		}
	}
}

func (rl *RateLimiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

// Stop ends the sweeper. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}
