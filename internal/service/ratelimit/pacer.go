package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum spacing between calls per key. Each key gets an
// independent token bucket with burst 1, so the first call passes immediately
// and subsequent calls wait out the interval.
type Pacer struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

// NewPacer creates a pacer with the given minimum interval between calls.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

func (p *Pacer) limiter(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(p.interval), 1)
		p.limiters[key] = l
	}
	return l
}

// Wait blocks until the key's next slot is available or ctx is done.
func (p *Pacer) Wait(ctx context.Context, key string) error {
	return p.limiter(key).Wait(ctx)
}

// Allow reports whether a call for key may proceed right now without waiting.
func (p *Pacer) Allow(key string) bool {
	return p.limiter(key).Allow()
}
