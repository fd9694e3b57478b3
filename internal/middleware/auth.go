// internal/middleware/auth.go
package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"expense-hive/internal/auth"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// Principal is the authenticated caller of a request.
type Principal struct {
	AccountID string
	ExpiresAt time.Time
}

type AuthMiddleware struct {
	tokenService *auth.TokenService
}

func NewAuthMiddleware(ts *auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenService: ts}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": message})
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "No token provided")
			return
		}

		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			unauthorized(c, "No token provided")
			return
		}

		claims, err := m.tokenService.ParseToken(strings.TrimSpace(tokenStr), auth.KindAccess)
		if err != nil {
			slog.Debug("token rejected", "error", err, "request_id", RequestID(c))
			if errors.Is(err, auth.ErrTokenExpired) {
				unauthorized(c, "Token has expired")
				return
			}
			unauthorized(c, "Invalid token")
			return
		}

		p := Principal{AccountID: claims.AccountID}
		if claims.ExpiresAt != nil {
			p.ExpiresAt = claims.ExpiresAt.Time
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// GetPrincipal returns the caller set by RequireAuth.
func GetPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
