package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/feirinha/feirinha-backend/api/responses"
	pkgerrors "github.com/feirinha/feirinha-backend/pkg/errors"
	"github.com/feirinha/feirinha-backend/pkg/logger"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimitPolicy is a token bucket applied per caller.
type RateLimitPolicy struct {
	RPS   float64
	Burst int
}

func (p RateLimitPolicy) enabled() bool {
	return p.RPS > 0 && p.Burst > 0
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one bucket per caller key and forgets idle ones.
type limiterSet struct {
	mu        sync.Mutex
	policy    RateLimitPolicy
	entries   map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterSet(policy RateLimitPolicy) *limiterSet {
	return &limiterSet{
		policy:  policy,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

func (s *limiterSet) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > limiterIdleTTL {
		for k, e := range s.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(s.entries, k)
			}
		}
		s.lastSweep = now
	}

	entry, ok := s.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(s.policy.RPS), s.policy.Burst)}
		s.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// RateLimit throttles requests per authenticated user, falling back to the client IP.
// It must run after Auth/OptionalAuth for user keys to apply.
func RateLimit(policy RateLimitPolicy, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() {
			return next
		}
		limiters := newLimiterSet(policy)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r)
			if limiters.allow(key) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"limit_key": key,
					"rps":       policy.RPS,
					"burst":     policy.Burst,
				})
				logg.Warn(ctx, "rate_limit.blocked")
			}
			w.Header().Set("Retry-After", "1")
			responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if user := UserIDFromContext(r.Context()); user != "" {
		return "user:" + user
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
