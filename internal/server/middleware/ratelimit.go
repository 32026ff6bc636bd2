package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// perIPMaxAge is how long an idle client keeps its limiter.
	perIPMaxAge = 10 * time.Minute
	// perIPMaxEntries bounds the number of tracked clients.
	perIPMaxEntries = 10_000
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
	// PerIP gives every client address its own token bucket instead of
	// sharing one across the server.
	PerIP bool
}

// RateLimit rejects requests above the configured rate with 429.
func RateLimit(config RateLimitConfig) Middleware {
	if !config.Enabled {
		return passthrough
	}

	var limiterFor func(r *http.Request) *rate.Limiter
	if config.PerIP {
		clients := newPerIPLimiter(config.RequestsPerSecond, config.Burst)
		limiterFor = func(r *http.Request) *rate.Limiter {
			return clients.getLimiter(getClientIP(r))
		}
	} else {
		shared := rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst)
		limiterFor = func(*http.Request) *rate.Limiter {
			return shared
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiterFor(r).Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type ipLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// perIPLimiter keeps one limiter per client. Idle entries are dropped when
// the table fills up.
type perIPLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	rps      rate.Limit
	burst    int
	max      int
	now      func() time.Time
}

func newPerIPLimiter(rps float64, burst int) *perIPLimiter {
	return &perIPLimiter{
		limiters: make(map[string]*ipLimiterEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
		max:      perIPMaxEntries,
		now:      time.Now,
	}
}

func (l *perIPLimiter) getLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry, ok := l.limiters[ip]; ok {
		entry.lastAccess = now
		return entry.limiter
	}

	if len(l.limiters) >= l.max {
		l.cleanupLocked(now)
		if len(l.limiters) >= l.max {
			l.evictOldestLocked()
		}
	}

	entry := &ipLimiterEntry{
		limiter:    rate.NewLimiter(l.rps, l.burst),
		lastAccess: now,
	}
	l.limiters[ip] = entry
	return entry.limiter
}

// cleanupLocked drops entries idle for longer than perIPMaxAge.
func (l *perIPLimiter) cleanupLocked(now time.Time) {
	for ip, entry := range l.limiters {
		if now.Sub(entry.lastAccess) > perIPMaxAge {
			delete(l.limiters, ip)
		}
	}
}

func (l *perIPLimiter) evictOldestLocked() {
	var oldestIP string
	var oldest time.Time
	for ip, entry := range l.limiters {
		if oldestIP == "" || entry.lastAccess.Before(oldest) {
			oldestIP = ip
			oldest = entry.lastAccess
		}
	}
	delete(l.limiters, oldestIP)
}

// getClientIP returns the originating client address: the first
// X-Forwarded-For hop, then X-Real-IP, then the connection's host.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
