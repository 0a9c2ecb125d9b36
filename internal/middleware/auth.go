// Package middleware carries the API's cross-cutting HTTP concerns: bearer
// token authentication, per-action authorization and rate limiting.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/superdrive/vehicle-ledger/internal/auth"
	"github.com/superdrive/vehicle-ledger/internal/models"
)

type contextKey string

// UserContextKey holds the authenticated user's claims on the request
// context.
const UserContextKey contextKey = "user"

// Auth authenticates requests against the token service. Paths matching a
// public prefix pass through untouched.
type Auth struct {
	tokens *auth.Service
	public []string
}

// NewAuth creates the authentication middleware. publicPrefixes lists path
// prefixes served without a token, such as the login endpoint.
func NewAuth(tokens *auth.Service, publicPrefixes ...string) *Auth {
	return &Auth{tokens: tokens, public: publicPrefixes}
}

// Authenticate rejects requests without a valid bearer token and puts the
// token's claims on the context for the handlers downstream.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		claims, err := a.tokens.ValidateToken(token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission rejects authenticated users whose role does not grant
// the action.
func (a *Auth) RequirePermission(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := UserFromContext(r.Context())
			if !ok {
				http.Error(w, "User context not found", http.StatusUnauthorized)
				return
			}
			if !claims.Role.Can(action) {
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext extracts the authenticated claims from a request context.
func UserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}

func (a *Auth) isPublic(path string) bool {
	for _, prefix := range a.public {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// RateLimiter applies a per-IP request budget over a sliding window. It is
// meant for the credential endpoints, not as general load shedding.
type RateLimiter struct {
	mu     sync.Mutex
	seen   map[string][]time.Time
	limit  int
	window time.Duration
}

// NewRateLimiter allows limit requests per client IP within window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		seen:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

// Limit enforces the budget and answers 429 beyond it.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r), time.Now()) {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) allow(ip string, now time.Time) bool {
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.seen[ip][:0]
	for _, ts := range l.seen[ip] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	if len(recent) >= l.limit {
		l.seen[ip] = recent
		return false
	}
	l.seen[ip] = append(recent, now)
	return true
}

// clientIP prefers proxy headers over the socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
