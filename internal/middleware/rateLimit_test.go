package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/middleware"
)

func TestRateLimiter_Memory(t *testing.T) {
	rl, err := middleware.NewRateLimiter(context.Background(), middleware.RateLimitOptions{Rate: "2-M"}, zap.NewNop())
	require.NoError(t, err)
	defer rl.Close()

	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/abc1234", nil)
		req.RemoteAddr = ip + ":51234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl, err := middleware.NewRateLimiter(context.Background(), middleware.RateLimitOptions{}, zap.NewNop())
	require.NoError(t, err)

	calls := 0
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	for i := 0; i < 10; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	assert.Equal(t, 10, calls)
	assert.NoError(t, rl.Close())
}

func TestRateLimiter_InvalidRate(t *testing.T) {
	_, err := middleware.NewRateLimiter(context.Background(), middleware.RateLimitOptions{Rate: "lots"}, zap.NewNop())
	assert.Error(t, err)
}

func TestRateLimiter_ForwardHeader(t *testing.T) {
	tests := []struct {
		name       string
		trust      bool
		wantStatus int
	}{
		{name: "spoofed header ignored", trust: false, wantStatus: http.StatusTooManyRequests},
		{name: "trusted proxy header", trust: true, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl, err := middleware.NewRateLimiter(context.Background(), middleware.RateLimitOptions{
				Rate:               "1-M",
				TrustForwardHeader: tt.trust,
			}, zap.NewNop())
			require.NoError(t, err)
			defer rl.Close()

			handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			do := func(forwarded string) int {
				req := httptest.NewRequest(http.MethodGet, "/abc1234", nil)
				req.RemoteAddr = "10.0.0.9:40000"
				req.Header.Set("X-Forwarded-For", forwarded)
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
				return rec.Code
			}

			require.Equal(t, http.StatusOK, do("203.0.113.1"))
			assert.Equal(t, tt.wantStatus, do("203.0.113.2"))
		})
	}
}
