package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterStore hands out one token bucket per client key and forgets clients
// that have been idle for longer than idleTTL.
type limiterStore struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	return &limiterStore{
		entries: make(map[string]*limiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: 15 * time.Minute,
		now:     time.Now,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	s.cleanupLocked(now)
	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

// cleanupLocked drops idle entries. Callers hold mu.
func (s *limiterStore) cleanupLocked(now time.Time) {
	cutoff := now.Add(-s.idleTTL)
	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// clientKey identifies the caller by remote host.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// rateLimit rejects callers that exceed their token bucket with 429.
func (h *handler) rateLimit(next http.Handler) http.Handler {
	if h.limiters == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiters.get(clientKey(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			h.respondErrorWithOp(w, http.StatusTooManyRequests, "rate limit exceeded", codeRateLimited, "server.rateLimit")
			return
		}
		next.ServeHTTP(w, r)
	})
}
