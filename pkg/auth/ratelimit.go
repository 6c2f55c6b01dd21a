package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter decides whether an authenticated caller may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// InProcessLimiter enforces per-minute request budgets by tier,
// counted per caller in memory. Suitable for a single gateway
// instance; a multi-instance deployment needs a shared backend.
type InProcessLimiter struct {
	tiers      map[string]int // tier -> requests per minute
	defaultRPM int

	mu      sync.Mutex
	windows map[string]*window
}

// window counts hits in the current one-minute span for one caller.
type window struct {
	hits    int
	startAt time.Time
}

// NewInProcessLimiter builds a limiter from per-tier budgets. Tiers
// without an entry use defaultRPM; a budget of zero or less means
// unlimited.
func NewInProcessLimiter(tiers map[string]int, defaultRPM int) *InProcessLimiter {
	return &InProcessLimiter{
		tiers:      tiers,
		defaultRPM: defaultRPM,
		windows:    make(map[string]*window),
	}
}

// Allow returns ErrTooManyRequests when the caller's budget for the
// current minute is exhausted.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	tier := identity.Tier
	if tier == "" {
		tier = TierDefault
	}

	rpm := l.defaultRPM
	if budget, ok := l.tiers[tier]; ok {
		rpm = budget
	}
	if rpm <= 0 {
		return nil
	}

	key := identity.Subject + ":" + tier

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.startAt) >= time.Minute {
		l.windows[key] = &window{hits: 1, startAt: now}
		return nil
	}

	w.hits++
	if w.hits > rpm {
		return ErrTooManyRequests
	}
	return nil
}
