package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, r.RemoteAddr)
})

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		path string
		cost int64
	}{
		{"/health", 0},
		{"/metrics", 0},
		{"/v1/doses", 20},
		{"/v1/doses/induction", 10},
		{"/v1/catalog", 10},
		{"/v1/catalog/analgesic", 5},
		{"/v1/drugs/propofol", 5},
		{"/unknown", 5},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.cost, getTokenCost(httptest.NewRequest(http.MethodGet, tt.path, nil)))
		})
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 40)
	handler := rl.Middleware(okHandler)

	request := func(path, addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	first := request("/v1/doses", "10.0.0.1:1111")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "40", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0.001", first.Header().Get("X-RateLimit-Rate"))
	assert.Equal(t, "20", first.Header().Get("X-RateLimit-Remaining"))

	// the port is ignored so reconnects share a bucket
	assert.Equal(t, http.StatusOK, request("/v1/doses", "10.0.0.1:2222").Code)

	limited := request("/v1/doses", "10.0.0.1:3333")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "0", limited.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))

	// free endpoints and other clients are unaffected
	assert.Equal(t, http.StatusOK, request("/health", "10.0.0.1:3333").Code)
	assert.Equal(t, http.StatusOK, request("/v1/doses", "10.0.0.2:1111").Code)
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiterSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1000, 10)
	rl.now = func() time.Time { return now }

	rl.bucket("10.0.0.1")
	now = now.Add(2 * time.Hour)
	rl.bucket("10.0.0.2").TakeAvailable(5)

	// 10.0.0.1 idle with a full bucket, 10.0.0.2 just seen
	assert.Equal(t, 1, rl.Sweep(time.Hour))
	assert.Equal(t, 1, rl.Len())

	now = now.Add(2 * time.Hour)
	time.Sleep(20 * time.Millisecond) // let the fast bucket refill
	assert.Equal(t, 0, rl.Sweep(time.Hour))
}

func TestRealIPMiddleware(t *testing.T) {
	handler := RealIPMiddleware(okHandler)

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"no headers", nil, "192.0.2.1:1234"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": " 203.0.113.9 "}, "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Body.String())
		})
	}
}

func TestBlockDirectAccessMiddleware(t *testing.T) {
	handler := BlockDirectAccessMiddleware(okHandler)

	tests := []struct {
		name   string
		addr   string
		header string
		want   int
	}{
		{"localhost", "127.0.0.1:5000", "", http.StatusOK},
		{"ipv6 localhost", "[::1]:5000", "", http.StatusOK},
		{"direct remote", "203.0.113.5:5000", "", http.StatusForbidden},
		{"proxied remote", "203.0.113.5:5000", "198.51.100.7", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.addr
			if tt.header != "" {
				req.Header.Set("X-Forwarded-For", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	handler := RequestSizeMiddleware(16, 64)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("small body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"age":1}`)))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("declared body too large", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 17))))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
		assert.Contains(t, rr.Body.String(), "Maximum allowed size is 16 bytes")
	})

	t.Run("undeclared body too large", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
		req.ContentLength = -1
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	})

	t.Run("headers too large", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Padding", strings.Repeat("p", 80))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusRequestHeaderFieldsTooLarge, rr.Code)
	})
}
