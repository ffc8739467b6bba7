// Package ratelimit counts requests per client IP in fixed Redis windows.
package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/todos-api/internal/httputil"
	"github.com/redmonkez12/todos-api/internal/logging"
)

// Limiter allows at most limit requests per window for each purpose and IP.
// A nil Redis client disables limiting.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewLimiter(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func key(purpose, ip string) string {
	return fmt.Sprintf("rate_limit:%s:%s", purpose, ip)
}

// Allow records one request and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, purpose, ip string) (bool, error) {
	if l == nil || l.client == nil || l.limit < 1 {
		return true, nil
	}

	k := key(purpose, ip)
	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// first request opens the window
	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= int64(l.limit), nil
}

// Middleware rejects requests over the limit with 429. Redis failures let
// the request through.
func (l *Limiter) Middleware(purpose string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.GetLoggerFromContext(r.Context())
			ip := ClientIP(r)

			allowed, err := l.Allow(r.Context(), purpose, ip)
			if err != nil {
				logger.Error("failed to check IP rate limit", "purpose", purpose, "error", err.Error())
			} else if !allowed {
				logger.Warn("IP rate limit exceeded", "purpose", purpose, "ip", ip)
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(l.window.Seconds())))
				httputil.RespondError(w, "Too many requests, please try again later.", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For entry, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
