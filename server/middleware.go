package server

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

type contextKey string

const identityKey contextKey = "identity"

// identityHeader carries the caller's user ID. Identity is a stub: the
// deployment fronts this service with a gateway that authenticates and
// injects the header.
const identityHeader = "X-User-ID"

// withIdentity extracts the caller identity and rejects anonymous requests.
func withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(identityHeader)
		if userID == "" {
			respondJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "missing " + identityHeader + " header",
			})
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerID returns the identity stored by withIdentity.
func callerID(r *http.Request) string {
	id, _ := r.Context().Value(identityKey).(string)
	return id
}

// userRateLimiter throttles a route per caller. Limiters for users that go
// quiet are never evicted; the map stays small because entries are keyed by
// active account IDs.
type userRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newUserRateLimiter(limit rate.Limit, burst int) *userRateLimiter {
	return &userRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (l *userRateLimiter) limiter(userID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = limiter
	}
	return limiter
}

// Middleware rejects requests over the per-user budget with 429.
func (l *userRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter(callerID(r)).Allow() {
			respondJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "too many requests",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
