// Package ratelimit provides a sliding-window rate limiter shared by all
// callers of a rate-limited external source. Acquire never fails, it only
// delays; waiting callers are admitted in arrival order.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter admits at most maxRequests calls per window. State lives for the
// process run only.
type Limiter struct {
	// admit serializes waiters so slots are handed out in request order.
	admit sync.Mutex

	mu      sync.Mutex
	stamps  []time.Time
	max     int
	window  time.Duration
	enabled bool

	now func() time.Time // test seam
}

// NewLimiter creates a limiter allowing maxRequests per window.
// A disabled limiter admits every caller immediately.
func NewLimiter(enabled bool, maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		max:     maxRequests,
		window:  window,
		enabled: enabled,
		now:     time.Now,
	}
}

// Acquire blocks until a slot is free, then records the request timestamp.
// It returns early only when ctx is cancelled.
func (l *Limiter) Acquire(ctx context.Context) error {
	if !l.enabled {
		return nil
	}

	// Holding admit while waiting keeps later arrivals queued behind us.
	l.admit.Lock()
	defer l.admit.Unlock()

	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)
		if len(l.stamps) < l.max {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.window - now.Sub(l.stamps[0])
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// prune drops timestamps that aged out of the window. Callers hold mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	keep := l.stamps[:0]
	for _, t := range l.stamps {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	l.stamps = keep
}

// Pending returns the number of timestamps currently inside the window.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.stamps)
}

// Registry hands out one limiter per named source so every caller of that
// source shares the same window.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Limiter)}
}

// Register configures the limiter for a source. Re-registering replaces the
// previous configuration.
func (r *Registry) Register(source string, maxRequests int, window time.Duration) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	limiter := NewLimiter(true, maxRequests, window)
	r.limiters[source] = limiter
	return limiter
}

// Acquire waits on the limiter registered for source. Unregistered sources
// are not limited.
func (r *Registry) Acquire(ctx context.Context, source string) error {
	r.mu.Lock()
	limiter := r.limiters[source]
	r.mu.Unlock()
	if limiter == nil {
		return nil
	}
	return limiter.Acquire(ctx)
}

// For returns the limiter for a source, or nil when none is registered.
func (r *Registry) For(source string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limiters[source]
}
