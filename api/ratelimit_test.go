package api

import (
	"testing"
	"time"
)

func TestRateLimiterRefillsAndSweeps(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 60, Burst: 2})
	l.clockNow = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of two should be allowed")
	}
	if l.Allow("a") {
		t.Fatal("third request inside the same instant should be limited")
	}
	if !l.Allow("b") {
		t.Fatal("other keys have their own bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow("a") {
		t.Fatal("one token should refill after a second")
	}

	now = now.Add(idleAfter)
	l.Allow("c")
	if _, ok := l.visitors["a"]; ok {
		t.Fatal("idle visitor should have been swept")
	}
	if len(l.visitors) != 1 {
		t.Fatalf("visitors = %d, want 1", len(l.visitors))
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{})
	if l.burst != 1 {
		t.Fatalf("burst = %d, want 1", l.burst)
	}
	if float64(l.limit) != 1 {
		t.Fatalf("limit = %v, want 1", l.limit)
	}
}
