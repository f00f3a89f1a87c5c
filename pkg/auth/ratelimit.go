package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter decides whether a request from the given identity may
// proceed. Implementations return ErrTooManyRequests to reject.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// TierConfig holds rate limit settings for a service tier.
type TierConfig struct {
	RequestsPerMinute int
}

// InProcessLimiter enforces per-subject fixed windows in memory. Counters
// for subjects that go quiet are pruned lazily on the next Allow call, so
// the map does not grow without bound.
type InProcessLimiter struct {
	tiers      map[string]TierConfig
	defaultRPM int

	mu        sync.Mutex
	windows   map[string]*window
	lastPrune time.Time
}

type window struct {
	startedAt time.Time
	count     int
}

// NewInProcessLimiter creates a rate limiter with per-tier configuration.
// defaultRPM applies to tiers without an explicit entry; zero or negative
// means unlimited.
func NewInProcessLimiter(tiers map[string]TierConfig, defaultRPM int) *InProcessLimiter {
	return &InProcessLimiter{
		tiers:      tiers,
		defaultRPM: defaultRPM,
		windows:    make(map[string]*window),
		lastPrune:  time.Now(),
	}
}

// Allow checks if the request is within the identity's rate limit.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	rpm := l.limitFor(identity.ServiceTier)
	if rpm <= 0 {
		return nil
	}

	key := identity.Subject + ":" + identity.ServiceTier

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.maybePrune(now)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.startedAt) >= time.Minute {
		l.windows[key] = &window{startedAt: now, count: 1}
		return nil
	}

	w.count++
	if w.count > rpm {
		return ErrTooManyRequests
	}
	return nil
}

func (l *InProcessLimiter) limitFor(tier string) int {
	if tier == "" {
		tier = "default"
	}
	if tc, ok := l.tiers[tier]; ok {
		return tc.RequestsPerMinute
	}
	return l.defaultRPM
}

// maybePrune drops windows older than two minutes, at most once a minute.
// Caller holds l.mu.
func (l *InProcessLimiter) maybePrune(now time.Time) {
	if now.Sub(l.lastPrune) < time.Minute {
		return
	}
	for key, w := range l.windows {
		if now.Sub(w.startedAt) >= 2*time.Minute {
			delete(l.windows, key)
		}
	}
	l.lastPrune = now
}
