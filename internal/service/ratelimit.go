package service

import (
	"sync"
	"time"
)

// TokenBucket is an in-memory per-key rate limiter using the token bucket
// algorithm. It is safe for concurrent use; stale buckets are reaped by a
// background goroutine until Stop is called.
type TokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64 // tokens added per second
	capacity float64 // maximum tokens
	done     chan struct{}
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewTokenBucket creates a rate limiter that allows bursts of up to capacity
// requests per key, refilling at rate tokens per second.
func NewTokenBucket(rate, capacity float64) *TokenBucket {
	tb := &TokenBucket{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
		done:     make(chan struct{}),
	}
	go tb.reapLoop()
	return tb
}

// Allow reports whether the given key may proceed under the rate limit.
// Each call consumes one token; it returns false when the bucket is empty.
func (tb *TokenBucket) Allow(key string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.capacity, last: time.Now()}
		tb.buckets[key] = b
	}

	now := time.Now()
	b.tokens = min(b.tokens+now.Sub(b.last).Seconds()*tb.rate, tb.capacity)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Stop terminates the background reaper.
func (tb *TokenBucket) Stop() {
	close(tb.done)
}

// reapLoop periodically removes buckets not touched for 10 minutes.
func (tb *TokenBucket) reapLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-tb.done:
			return
		case <-ticker.C:
			tb.mu.Lock()
			cutoff := time.Now().Add(-10 * time.Minute)
			for key, b := range tb.buckets {
				if b.last.Before(cutoff) {
					delete(tb.buckets, key)
				}
			}
			tb.mu.Unlock()
		}
	}
}
