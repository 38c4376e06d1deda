package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/shortlink/internal/middleware"
)

func TestWithSubnet(t *testing.T) {
	tests := []struct {
		name           string
		subnet         string
		realIP         string
		expectedStatus int
	}{
		{"allowed subnet", "192.168.0.0/24", "192.168.0.45", http.StatusOK},
		{"forbidden subnet", "10.0.0.0/8", "192.168.0.1", http.StatusForbidden},
		{"single host", "203.0.113.5/32", "203.0.113.5", http.StatusOK},
		{"prefix lookalike", "10.0.0.0/24", "10.0.0.1000", http.StatusForbidden},
		{"missing header", "192.168.1.0/24", "", http.StatusForbidden},
		{"no trusted subnet", "", "192.168.1.1", http.StatusForbidden},
		{"malformed subnet", "192.168.1", "192.168.1.1", http.StatusForbidden},
		{"ipv6", "2001:db8::/32", "2001:db8::1", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodDelete, "/api/urls/abc1234", nil)
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			rr := httptest.NewRecorder()

			middleware.WithSubnet(tt.subnet)(handler).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedStatus == http.StatusOK, called)
		})
	}
}

func TestParseSubnet(t *testing.T) {
	network, err := middleware.ParseSubnet(" 172.16.0.0/12 ")
	require.NoError(t, err)
	assert.True(t, middleware.InSubnet(network, "172.20.1.1"))
	assert.False(t, middleware.InSubnet(network, "172.32.0.1"))

	network, err = middleware.ParseSubnet("")
	require.NoError(t, err)
	assert.Nil(t, network)

	_, err = middleware.ParseSubnet("not-a-cidr")
	assert.Error(t, err)
}
