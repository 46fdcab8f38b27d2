package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const tooManyRequests = `{"title":"Too Many Requests","status":429,"detail":"rate limit exceeded"}`

type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterTable hands out one token bucket per key. Entries idle for 30 minutes
// are swept every 10 minutes until ctx is done.
type limiterTable[K comparable] struct {
	mu       sync.Mutex
	limiters map[K]*keyedLimiter
	rps      rate.Limit
	burst    int
}

func newLimiterTable[K comparable](ctx context.Context, requestsPerSecond float64, burst int) *limiterTable[K] {
	t := &limiterTable[K]{
		limiters: make(map[K]*keyedLimiter),
		rps:      rate.Limit(requestsPerSecond),
		burst:    burst,
	}

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.sweep(time.Now().Add(-30 * time.Minute))
			case <-ctx.Done():
				return
			}
		}
	}()

	return t
}

func (t *limiterTable[K]) sweep(cutoff time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, kl := range t.limiters {
		if kl.lastAccess.Before(cutoff) {
			delete(t.limiters, k)
		}
	}
}

func (t *limiterTable[K]) allow(key K) bool {
	t.mu.Lock()
	kl, ok := t.limiters[key]
	if !ok {
		kl = &keyedLimiter{limiter: rate.NewLimiter(t.rps, t.burst)}
		t.limiters[key] = kl
	}
	kl.lastAccess = time.Now()
	t.mu.Unlock()

	return kl.limiter.Allow()
}

// RateLimitByIP applies per-IP rate limiting for unauthenticated endpoints
// (login, register, the socket handshake). The port is stripped from
// r.RemoteAddr so reconnects from new source ports share a bucket.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	table := newLimiterTable[string](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !table.allow(clientIP(r)) {
				http.Error(w, tooManyRequests, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies per-user rate limiting. It must run after Auth; requests
// without a user in context pass through.
func RateLimit(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	table := newLimiterTable[uuid.UUID](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if !table.allow(userID) {
				http.Error(w, tooManyRequests, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
