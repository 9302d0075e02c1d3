package bot

import (
	"sync"
	"time"

	"ucshop-bot/internal/domain"
)

// rateLimiter is a per-user sliding window: at most maxHits updates per
// window. Anything over the limit is silently dropped before dispatch.
type rateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	maxHits int
	hits    map[domain.UserID][]time.Time
}

func newRateLimiter(window time.Duration, maxHits int) *rateLimiter {
	return &rateLimiter{
		window:  window,
		maxHits: maxHits,
		hits:    make(map[domain.UserID][]time.Time),
	}
}

func (r *rateLimiter) allow(id domain.UserID) bool {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	recent := r.hits[id][:0]
	for _, t := range r.hits[id] {
		if now.Sub(t) < r.window {
			recent = append(recent, t)
		}
	}
	if len(recent) >= r.maxHits {
		r.hits[id] = recent
		return false
	}
	r.hits[id] = append(recent, now)
	return true
}
