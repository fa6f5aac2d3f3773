package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// attemptLimiter throttles sign-in attempts per key (email|ip). Exhaustion is
// reported as the same too-many-attempts rejection the provider uses, without
// the provider ever being contacted.
type attemptLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

const limiterIdleEviction = 30 * time.Minute

func newAttemptLimiter(limit rate.Limit, burst int) *attemptLimiter {
	return &attemptLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    limit,
		burst:    burst,
	}
}

// Allow consumes one attempt for key and reports whether it may proceed.
func (a *attemptLimiter) Allow(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	entry, ok := a.limiters[key]
	if !ok {
		entry = &limiterEntry{lim: rate.NewLimiter(a.limit, a.burst)}
		a.limiters[key] = entry
	}
	entry.lastSeen = now

	// Opportunistic prune of idle entries to bound the map.
	if len(a.limiters) > 1024 {
		for k, e := range a.limiters {
			if now.Sub(e.lastSeen) > limiterIdleEviction {
				delete(a.limiters, k)
			}
		}
	}

	return entry.lim.Allow()
}
