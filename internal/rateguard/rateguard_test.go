package rateguard

import (
	"testing"
	"time"
)

func newTestGuard(limit int, window time.Duration) (*Guard, *time.Time) {
	g := NewGuard(limit, window)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return current }
	return g, &current
}

func TestAllow_WithinLimit(t *testing.T) {
	g, _ := newTestGuard(5, time.Minute)

	for i := 0; i < 5; i++ {
		decision := g.Allow("alice")
		if !decision.Allowed {
			t.Fatalf("Request %d should be allowed", i+1)
		}
		if decision.Remaining != 5-i-1 {
			t.Errorf("Request %d: expected remaining %d, got %d", i+1, 5-i-1, decision.Remaining)
		}
	}
}

func TestAllow_SixthRequestDenied(t *testing.T) {
	g, _ := newTestGuard(5, time.Minute)

	for i := 0; i < 5; i++ {
		g.Allow("alice")
	}

	decision := g.Allow("alice")
	if decision.Allowed {
		t.Fatal("Sixth request within the window should be denied")
	}
	if decision.RetryAfter <= 0 || decision.RetryAfter > time.Minute {
		t.Errorf("Expected retry-after within (0, window], got %v", decision.RetryAfter)
	}
}

func TestAllow_DenialDoesNotExtendPenalty(t *testing.T) {
	g, current := newTestGuard(2, time.Minute)

	g.Allow("alice")
	g.Allow("alice")

	// Hammering while denied must not push the window forward.
	for i := 0; i < 10; i++ {
		if d := g.Allow("alice"); d.Allowed {
			t.Fatal("Request should be denied while window is full")
		}
	}

	*current = current.Add(61 * time.Second)
	if d := g.Allow("alice"); !d.Allowed {
		t.Error("Request should be allowed after the window slides past")
	}
}

func TestAllow_WindowSlides(t *testing.T) {
	g, current := newTestGuard(2, time.Minute)

	g.Allow("alice")
	*current = current.Add(30 * time.Second)
	g.Allow("alice")

	if d := g.Allow("alice"); d.Allowed {
		t.Fatal("Third request within the window should be denied")
	}

	// First attempt falls out of the window; one slot frees up.
	*current = current.Add(31 * time.Second)
	if d := g.Allow("alice"); !d.Allowed {
		t.Error("Request should be allowed after the oldest attempt expires")
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	g, _ := newTestGuard(1, time.Minute)

	if d := g.Allow("alice"); !d.Allowed {
		t.Fatal("First request for alice should be allowed")
	}
	if d := g.Allow("bob"); !d.Allowed {
		t.Error("bob must not be throttled by alice's attempts")
	}
}

func TestReset(t *testing.T) {
	g, _ := newTestGuard(1, time.Minute)

	g.Allow("alice")
	if d := g.Allow("alice"); d.Allowed {
		t.Fatal("Second request should be denied")
	}

	g.Reset("alice")
	if d := g.Allow("alice"); !d.Allowed {
		t.Error("Request should be allowed after reset")
	}
}
