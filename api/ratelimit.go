package api

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var errRateLimited = errors.New("rate limit exceeded")

// idleAfter is how long a caller's limiter survives without traffic.
const idleAfter = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per authenticated caller.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
	clockNow func() time.Time
	swept    time.Time
}

// NewRateLimiter returns a limiter for cfg. Non-positive values fall back
// to one request per second with a burst of one.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	perSecond := cfg.RequestsPerMinute / 60.0
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		visitors: make(map[string]*visitor),
		clockNow: time.Now,
	}
}

// Middleware must run after the Authenticator so the caller is known.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFrom(r.Context())
		key := r.RemoteAddr
		if ok {
			key = caller.Hex()
		}
		if !l.Allow(key) {
			writeStatus(w, r, http.StatusTooManyRequests, errRateLimited, "RateLimited")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Allow reports whether key may proceed now.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clockNow()
	l.sweep(now)

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep drops idle visitors at most once per idle window.
func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.swept) < idleAfter {
		return
	}
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) >= idleAfter {
			delete(l.visitors, key)
		}
	}
	l.swept = now
}
