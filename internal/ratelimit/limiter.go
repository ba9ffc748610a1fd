// Package ratelimit provides a token bucket limiter for upstream API
// quotas. Callers that find the bucket empty fail fast instead of
// queuing; backoff is the caller's decision.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter implements a token bucket rate limiter.
type Limiter struct {
	tokens     int
	maxTokens  int
	refillRate time.Duration
	mu         sync.Mutex
	lastRefill time.Time
}

// NewLimiter creates a token bucket holding maxTokens, refilled one
// token per refillRate.
func NewLimiter(maxTokens int, refillRate time.Duration) *Limiter {
	return &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// NewHourly creates a limiter that admits at most callsPerHour calls,
// spread evenly across the hour.
func NewHourly(callsPerHour int) *Limiter {
	if callsPerHour < 1 {
		callsPerHour = 1
	}
	return NewLimiter(callsPerHour, time.Hour/time.Duration(callsPerHour))
}

// DefaultFindingLimiter returns the limiter used for the marketplace
// Finding API. The documented ceiling is 200 calls/hour; stay under it.
func DefaultFindingLimiter() *Limiter {
	return NewHourly(180)
}

// Allow consumes a token if one is available. It never blocks; a false
// return means the hourly quota is exhausted right now.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillTokens()

	if l.tokens > 0 {
		l.tokens--
		return true
	}
	return false
}

// TokensAvailable returns the current number of tokens in the bucket.
func (l *Limiter) TokensAvailable() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillTokens()
	return l.tokens
}

// refillTokens adds tokens based on elapsed time.
// Must be called with the mutex held.
func (l *Limiter) refillTokens() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill)

	tokensToAdd := int(elapsed / l.refillRate)
	if tokensToAdd > 0 {
		l.tokens = min(l.maxTokens, l.tokens+tokensToAdd)
		l.lastRefill = now
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
