package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLimiter(client, limit, window), mr
}

func TestLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "login", "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}

	ok, err := limiter.Allow(ctx, "login", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	// other purposes and IPs have their own counters
	ok, err = limiter.Allow(ctx, "register", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = limiter.Allow(ctx, "login", "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, time.Minute, mr.TTL("rate_limit:login:10.0.0.1"))

	mr.FastForward(time.Minute + time.Second)
	ok, err = limiter.Allow(ctx, "login", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok, "window expired")
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(nil, 1, time.Minute)
	for i := 0; i < 5; i++ {
		ok, err := limiter.Allow(context.Background(), "login", "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestLimiter_Middleware(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, time.Minute)
	handler := limiter.Middleware("login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/accounts/token/", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOO_MANY_REQUESTS")
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// fails open when Redis is gone
	mr.Close()
	assert.Equal(t, http.StatusNoContent, send().Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, remote: "10.0.0.1:80", want: "203.0.113.5"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": " 203.0.113.6 "}, remote: "10.0.0.1:80", want: "203.0.113.6"},
		{name: "remote addr", remote: "192.0.2.10:1234", want: "192.0.2.10"},
		{name: "ipv6 remote addr", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "remote without port", remote: "192.0.2.11", want: "192.0.2.11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
