package rateguard

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// maxKeys bounds the number of tracked keys. Crossing it clears the whole
// store, which briefly lets everyone through rather than letting the map
// grow without limit.
const maxKeys = 100_000

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Guard is a sliding-window rate limiter keyed by caller identity.
type Guard struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

func NewGuard(limit int, window time.Duration) *Guard {
	return &Guard{
		attempts: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within the
// limit. A denied attempt is not recorded, so being rate limited does not
// extend the penalty.
func (g *Guard) Allow(key string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	cutoff := now.Add(-g.window)

	recent := g.attempts[key][:0]
	for _, t := range g.attempts[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= g.limit {
		g.attempts[key] = recent
		retryAfter := recent[0].Add(g.window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}
	}

	if len(recent) == 0 && len(g.attempts) >= maxKeys {
		zap.L().Warn("Rate guard key limit reached, clearing all tracked attempts",
			zap.Int("keys", len(g.attempts)))
		g.attempts = make(map[string][]time.Time)
		recent = nil
	}

	recent = append(recent, now)
	g.attempts[key] = recent

	return Decision{Allowed: true, Remaining: g.limit - len(recent)}
}

// Reset forgets all recorded attempts for key.
func (g *Guard) Reset(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.attempts, key)
}

// ResetAll forgets every recorded attempt.
func (g *Guard) ResetAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attempts = make(map[string][]time.Time)
}
