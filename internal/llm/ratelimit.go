package llm

import (
	"sync"
	"time"
)

// RateLimiter is a small in-memory sliding-window limiter. Allow
// returns true while fewer than maxCalls calls happened in the last
// period, and records the call.
type RateLimiter struct {
	mu         sync.Mutex
	maxCalls   int
	period     time.Duration
	timestamps []time.Time

	now func() time.Time // test seam
}

// NewRateLimiter creates a limiter allowing maxCalls per period.
func NewRateLimiter(maxCalls int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		maxCalls: maxCalls,
		period:   period,
		now:      time.Now,
	}
}

// Allow reports whether a call is permitted under the current window
// and, if so, counts it.
func (l *RateLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.period)

	kept := l.timestamps[:0]
	for _, ts := range l.timestamps {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.timestamps = kept

	if len(l.timestamps) >= l.maxCalls {
		return false
	}

	l.timestamps = append(l.timestamps, now)
	return true
}
