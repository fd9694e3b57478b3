package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expense-hive/internal/auth"
	"expense-hive/internal/config"
	"expense-hive/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(ts *auth.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/me", NewAuthMiddleware(ts).RequireAuth(), func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"account": p.AccountID, "request_id": RequestID(c)})
	})
	return r
}

func tokens(ttl time.Duration) *auth.TokenService {
	return auth.NewTokenService(config.Config{
		JWTSecret:           "middleware-test-secret-middleware",
		JWTExpiresIn:        ttl,
		JWTRefreshExpiresIn: time.Hour,
	})
}

func get(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	ts := tokens(time.Hour)
	r := newEngine(ts)
	account := domain.NewID()
	session, err := ts.IssueSession(account)
	require.NoError(t, err)

	w := get(r, "Bearer "+session.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), account)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "No token provided"},
		{"wrong scheme", "Basic abc", "No token provided"},
		{"garbage", "Bearer abc.def.ghi", "Invalid token"},
		{"refresh token", "Bearer " + session.RefreshToken, "Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}

func TestRequireAuthExpired(t *testing.T) {
	expired, err := tokens(-time.Minute).IssueSession(domain.NewID())
	require.NoError(t, err)

	w := get(newEngine(tokens(time.Hour)), "Bearer "+expired.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token has expired")
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, retry := rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute + time.Second)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok, "window resets")
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })

	tests := []struct {
		name   string
		header string
		reused bool
	}{
		{"plain token", "abc-123", true},
		{"uuid", "0b6f1c1e-4d2a-4c55-9a7e-3f1d2c3b4a5e", true},
		{"missing", "", false},
		{"too long", strings.Repeat("a", 65), false},
		{"control chars", "abc\x1b[31m", false},
		{"spaces", "abc def", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			assert.Equal(t, got, w.Body.String())
			if tt.reused {
				assert.Equal(t, tt.header, got)
				return
			}
			assert.NotEqual(t, tt.header, got)
			_, err := uuid.Parse(got)
			assert.NoError(t, err)
		})
	}
}
