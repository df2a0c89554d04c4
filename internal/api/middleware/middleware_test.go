package middleware_test

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/api/middleware"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/clients/telehealthapi"
)

func TestSessionMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		header    string
		wantToken string
	}{
		{name: "bearer header", path: "/api/dashboards/doctor", header: "Bearer tok-1", wantToken: "tok-1"},
		{name: "lowercase scheme", path: "/api/dashboards/doctor", header: "bearer tok-1", wantToken: "tok-1"},
		{name: "stream query token", path: "/api/stream/notifications?access_token=tok-2", wantToken: "tok-2"},
		{name: "query token ignored outside stream", path: "/api/dashboards/doctor?access_token=tok-2"},
		{name: "basic auth ignored", path: "/api/dashboards/doctor", header: "Basic abc"},
		{name: "anonymous", path: "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				sid    string
				hasSID bool
				token  string
			)
			handler := middleware.SessionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				sid, hasSID = middleware.SessionFromContext(r.Context())
				token = telehealthapi.BearerFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantToken != "", hasSID)
			if tt.wantToken != "" {
				assert.Equal(t, middleware.SessionID(tt.wantToken), sid)
			}
		})
	}
}

func TestSessionID_StableAndDistinct(t *testing.T) {
	assert.Equal(t, middleware.SessionID("a"), middleware.SessionID("a"))
	assert.NotEqual(t, middleware.SessionID("a"), middleware.SessionID("b"))
	assert.NotContains(t, middleware.SessionID("secret-token"), "secret")
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	t.Run("configured origin echoed", func(t *testing.T) {
		handler := middleware.CORSMiddleware([]string{"https://app.example.com"})(next)
		req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("unknown origin gets no header", func(t *testing.T) {
		handler := middleware.CORSMiddleware([]string{"https://app.example.com"})(next)
		req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short circuits", func(t *testing.T) {
		handler := middleware.CORSMiddleware(nil)(next)
		req := httptest.NewRequest(http.MethodOptions, "/api/account", nil)
		req.Header.Set("Origin", "https://any.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCompression(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true}`)
	})
	handler := middleware.ResponseOptimization(next)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboards/doctor", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Equal(t, "private, no-store", w.Header().Get("Cache-Control"))
	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(body))

	req = httptest.NewRequest(http.MethodGet, "/api/stream/notifications", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, `{"ok":true}`, w.Body.String())
}

func TestLoggingMiddleware_PassesStatusAndFlush(t *testing.T) {
	handler := middleware.LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, ok := w.(http.Flusher)
		assert.True(t, ok)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/payments/checkout", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
}
