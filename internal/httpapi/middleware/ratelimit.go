package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

type limiter struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	ttl   time.Duration
	m     map[string]*visitor
}

func newLimiter(rps rate.Limit, burst int, ttl time.Duration) *limiter {
	return &limiter{rps: rps, burst: burst, ttl: ttl, m: make(map[string]*visitor)}
}

func (l *limiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	v := l.m[key]
	if v == nil {
		v = &visitor{lim: rate.NewLimiter(l.rps, l.burst)}
		l.m[key] = v
	}
	v.seen = now
	for k, o := range l.m {
		if now.Sub(o.seen) > l.ttl {
			delete(l.m, k)
		}
	}
	l.mu.Unlock()
	return v.lim.AllowN(now, 1)
}

// RateLimit limits each client IP to reqPerMin with the given burst.
// A non-positive reqPerMin disables limiting.
func RateLimit(reqPerMin int, burst int) func(http.Handler) http.Handler {
	if reqPerMin <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	l := newLimiter(rate.Limit(float64(reqPerMin)/60.0), burst, 10*time.Minute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(clientIP(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// honor X-Forwarded-For if behind a proxy
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
