package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// A public booking site sees a long tail of one-off visitors, so buckets
// idle longer than bucketIdleMax are scavenged to keep the map bounded.
const (
	scavengeInterval = 5 * time.Minute
	bucketIdleMax    = 10 * time.Minute
)

// RateLimiter throttles callers with a token bucket per client address.
// Each bucket starts full at burst tokens, refills at rate tokens per
// second, and a request spends one token.
type RateLimiter struct {
	rate  float64
	burst float64

	mu      sync.Mutex
	clients map[string]*tokenBucket

	now func() time.Time
}

type tokenBucket struct {
	tokens   float64
	refilled time.Time
}

// NewRateLimiter creates a limiter allowing rate requests per second with
// bursts up to burst per client, and starts a scavenger for idle buckets.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		rate:    rate,
		burst:   float64(burst),
		clients: make(map[string]*tokenBucket),
		now:     time.Now,
	}
	go rl.scavenge()
	return rl
}

// Allow reports whether another request from client fits the limit, and
// spends a token when it does.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b := rl.clients[client]
	if b == nil {
		b = &tokenBucket{tokens: rl.burst, refilled: now}
		rl.clients[client] = b
	} else {
		b.tokens += now.Sub(b.refilled).Seconds() * rl.rate
		if b.tokens > rl.burst {
			b.tokens = rl.burst
		}
		b.refilled = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) scavenge() {
	ticker := time.NewTicker(scavengeInterval)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		cutoff := rl.now().Add(-bucketIdleMax)
		for client, b := range rl.clients {
			if b.refilled.Before(cutoff) {
				delete(rl.clients, client)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects requests over the per-client limit with
// 429 Too Many Requests. Mount after chi's RealIP middleware so RemoteAddr
// names the caller rather than a proxy hop.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientAddr(r)) {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr keys the bucket map. The port is stripped so one caller maps
// to one bucket across connections; RealIP leaves RemoteAddr portless, in
// which case it is used as-is.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
