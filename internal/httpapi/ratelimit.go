package httpapi

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"qms/shift-service/internal/metrics"
)

type RateLimitConfig struct {
	IPPerMinute     int
	IPBurst         int
	ModulePerMinute int
	ModuleBurst     int
}

// RateLimiter throttles by client address and, for workstation traffic, by
// the X-Module-Ip the request claims. Operator consoles behind one NAT
// share an address but not a module.
type RateLimiter struct {
	byAddr   *tokenLimiter
	byModule *tokenLimiter
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		byAddr:   newTokenLimiter(cfg.IPPerMinute, cfg.IPBurst),
		byModule: newTokenLimiter(cfg.ModulePerMinute, cfg.ModuleBurst),
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if addr := clientIP(r); addr != "" {
			if wait, ok := l.byAddr.allow(addr); !ok {
				rejectRateLimited(w, r, "ip", wait)
				return
			}
		}
		if moduleIP := moduleIPFromRequest(r); moduleIP != "" {
			if wait, ok := l.byModule.allow(moduleIP); !ok {
				rejectRateLimited(w, r, "module", wait)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func rejectRateLimited(w http.ResponseWriter, r *http.Request, scope string, wait time.Duration) {
	metrics.RateLimited.WithLabelValues(scope).Inc()
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	writeError(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests")
}

// tokenLimiter keeps one bucket per key. Buckets that have refilled
// completely carry no state and are pruned once the map grows.
type tokenLimiter struct {
	mu        sync.Mutex
	perSecond float64
	capacity  float64
	buckets   map[string]*bucket
	pruneAt   int
	now       func() time.Time
}

type bucket struct {
	tokens  float64
	updated time.Time
}

func newTokenLimiter(perMinute, burst int) *tokenLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 20
	}
	return &tokenLimiter{
		perSecond: float64(perMinute) / 60,
		capacity:  float64(burst),
		buckets:   make(map[string]*bucket),
		pruneAt:   1024,
		now:       time.Now,
	}
}

// allow takes a token for key. When none is left it reports how long until
// the next one.
func (l *tokenLimiter) allow(key string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= l.pruneAt {
			l.prune(now)
		}
		l.buckets[key] = &bucket{tokens: l.capacity - 1, updated: now}
		return 0, true
	}
	b.tokens = l.refill(b, now)
	b.updated = now
	if b.tokens < 1 {
		return time.Duration((1 - b.tokens) / l.perSecond * float64(time.Second)), false
	}
	b.tokens--
	return 0, true
}

func (l *tokenLimiter) refill(b *bucket, now time.Time) float64 {
	return min(l.capacity, b.tokens+now.Sub(b.updated).Seconds()*l.perSecond)
}

func (l *tokenLimiter) prune(now time.Time) {
	for key, b := range l.buckets {
		if l.refill(b, now) >= l.capacity {
			delete(l.buckets, key)
		}
	}
	if len(l.buckets) >= l.pruneAt {
		l.pruneAt *= 2
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
