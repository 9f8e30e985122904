package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shoplist-service/internal/auth"
	"shoplist-service/internal/realtime"

	"github.com/gin-gonic/gin"
)

type stubAuthenticator map[string]uint

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (uint, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, auth.ErrInvalidCredential
}

type countingLimiter struct {
	calls int
	limit int
	err   error
	keys  []string
}

func (l *countingLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	l.calls++
	l.keys = append(l.keys, key)
	if l.err != nil {
		return false, l.err
	}
	return l.calls <= l.limit, nil
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"userId": id})
	})
	r.GET("/test", handlers...)
	return r
}

func TestRequireAuth(t *testing.T) {
	am := NewAuthMiddleware(stubAuthenticator{"good": 5})
	r := newEngine(am.RequireAuth())

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing token", "", "", http.StatusUnauthorized},
		{"invalid token", "Bearer bad", "", http.StatusUnauthorized},
		{"bearer header", "Bearer good", "", http.StatusOK},
		{"query token", "", "?token=good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRateLimitIP(t *testing.T) {
	limiter := &countingLimiter{limit: 2}
	rm := NewRateLimitMiddleware(limiter, nil)
	r := newEngine(rm.RateLimitIP("auth", 2, time.Minute))

	codes := []int{}
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Unexpected status sequence %v", codes)
	}
	if limiter.keys[0] != "rate_limit_ip:auth:192.0.2.1" {
		t.Errorf("Unexpected key %q", limiter.keys[0])
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	limiter := &countingLimiter{err: errors.New("redis down")}
	am := NewAuthMiddleware(stubAuthenticator{"good": 5})
	rm := NewRateLimitMiddleware(limiter, nil)
	r := newEngine(am.RequireAuth(), rm.RateLimit("lists", 1, time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if limiter.keys[0] != "rate_limit:lists:5" {
		t.Errorf("Unexpected key %q", limiter.keys[0])
	}
}

func TestRequireInternalSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"disabled", "", "anything", http.StatusNotFound},
		{"wrong secret", "s3cret", "nope", http.StatusForbidden},
		{"right secret", "s3cret", "s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(RequireInternalSecret(tt.secret))
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set(realtime.InternalSecretHeader, tt.header)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(CORS([]string{"https://shop.example.com"}))
	r.OPTIONS("/test", CORS([]string{"https://shop.example.com"}))

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Errorf("Expected allowed origin header, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no allow-origin for unknown origin, got %q", got)
	}
}

func TestCheckOrigin(t *testing.T) {
	check := CheckOrigin([]string{"https://shop.example.com"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://shop.example.com", true},
		{"http://localhost:5173", true},
		{"https://evil.example.com", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := check(req); got != tt.want {
			t.Errorf("Origin %q: expected %v, got %v", tt.origin, tt.want, got)
		}
	}
}
