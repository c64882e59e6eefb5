package logging

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestLoggingMiddleware(t *testing.T) {
	var out strings.Builder
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	t.Run("probes are not logged", func(t *testing.T) {
		for _, path := range []string{"/health", "/metrics"} {
			out.Reset()
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Empty(t, out.String(), path)
		}
	})

	t.Run("requests are logged with request id", func(t *testing.T) {
		out.Reset()
		req := httptest.NewRequest(http.MethodGet, "/v1/doses?age=40&weight=70", nil)
		req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-42"))
		handler.ServeHTTP(httptest.NewRecorder(), req)

		line := out.String()
		assert.Contains(t, line, "level=INFO")
		assert.Contains(t, line, "request_id=req-42")
		assert.Contains(t, line, "path=/v1/doses")
		assert.Contains(t, line, "query=\"age=40&weight=70\"")
		assert.Contains(t, line, "status_code=200")
		assert.Contains(t, line, "bytes_written=2")
	})

	t.Run("server errors are logged at error level", func(t *testing.T) {
		out.Reset()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

		line := out.String()
		assert.Contains(t, line, "level=ERROR")
		assert.Contains(t, line, "request_id=unknown")
		assert.Contains(t, line, "status_code=500")
	})
}
