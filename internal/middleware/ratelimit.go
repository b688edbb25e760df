// Package middleware holds the HTTP middleware shared by every route:
// per-caller rate limiting, request ids and access logging.
package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"jobmate/offer-service/internal/logging"
	"jobmate/offer-service/internal/metrics"
)

// idleEviction is how long a caller's bucket survives without traffic.
const idleEviction = 10 * time.Minute

// RateLimiter keeps one token bucket per caller. Callers are keyed by the
// gateway's x-user-id header, falling back to the client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*bucket
	rate     rate.Limit
	burst    int
	log      *logging.Logger
	metrics  *metrics.Metrics
	done     chan struct{}
	once     sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows rps requests per second per caller with the given
// burst. Close stops the eviction goroutine.
func NewRateLimiter(rps float64, burst int, log *logging.Logger, m *metrics.Metrics) *RateLimiter {
	if log == nil {
		log = logging.NewNop()
	}
	rl := &RateLimiter{
		limiters: make(map[string]*bucket),
		rate:     rate.Limit(rps),
		burst:    burst,
		log:      log,
		metrics:  m,
		done:     make(chan struct{}),
	}
	go rl.evictLoop(idleEviction)
	return rl
}

// Allow reports whether key may make another request now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	b, ok := rl.limiters[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = b
	}
	b.lastSeen = time.Now()
	rl.mu.Unlock()
	return b.limiter.Allow()
}

// Middleware rejects callers over their budget with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := callerKey(r)
		if !rl.Allow(key) {
			rl.metrics.ObserveRateLimited()
			rl.log.Info("rate limit exceeded", "key", key, "path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close stops background eviction. Safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.evict(time.Now().Add(-every))
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) evict(before time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.limiters {
		if b.lastSeen.Before(before) {
			delete(rl.limiters, key)
		}
	}
}

func callerKey(r *http.Request) string {
	if id := r.Header.Get("x-user-id"); id != "" {
		return "user:" + id
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
