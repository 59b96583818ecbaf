// Package ratelimit provides keyed token-bucket rate limiting for outbound
// requests. Each key (typically an API endpoint) gets an independent limiter.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Keyed manages per-key rate limiting.
type Keyed struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// New creates a keyed limiter allowing rps requests per second per key with
// the given burst.
func New(rps float64, burst int) *Keyed {
	return &Keyed{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Wait blocks until a request for the key is allowed or the context is
// canceled. Use for outbound requests.
func (k *Keyed) Wait(ctx context.Context, key string) error {
	return k.limiter(key).Wait(ctx)
}

// Allow reports whether a request for the key may proceed right now.
func (k *Keyed) Allow(key string) bool {
	return k.limiter(key).Allow()
}

func (k *Keyed) limiter(key string) *rate.Limiter {
	k.mu.RLock()
	lim, ok := k.limiters[key]
	k.mu.RUnlock()
	if ok {
		return lim
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if lim, ok = k.limiters[key]; ok {
		return lim
	}
	lim = rate.NewLimiter(k.limit, k.burst)
	k.limiters[key] = lim
	return lim
}
