// internal/handler/errors.go
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"expense-hive/internal/aggregate"
	"expense-hive/internal/auth"
	"expense-hive/internal/domain"
	"expense-hive/internal/middleware"
	"expense-hive/internal/service"

	"github.com/gin-gonic/gin"
)

// writeError maps a service error onto a status code and body. notFound
// is the message used for domain.ErrNotFound.
func writeError(c *gin.Context, err error, notFound string) {
	_ = c.Error(err)

	var (
		verr     *domain.ValidationError
		conflict *domain.ConflictError
		dateErr  *aggregate.DateError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": verr.Messages})
	case errors.Is(err, domain.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account ID"})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": conflict.Messages})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": []string{err.Error()}})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": notFound})
	case errors.As(err, &dateErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"message": dateErr.Error(),
			"records": dateErr.Records,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
	case errors.Is(err, auth.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Token has expired"})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
	case errors.Is(err, domain.ErrUnavailable):
		slog.Error("storage unavailable", "error", err, "request_id", middleware.RequestID(c))
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Service temporarily unavailable"})
	default:
		slog.Error("request failed", "error", err, "path", c.FullPath(), "request_id", middleware.RequestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
	}
}

func badJSON(c *gin.Context, err error) {
	slog.Debug("invalid request body", "error", err, "request_id", middleware.RequestID(c))
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": []string{"Invalid JSON"}})
}

func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden"})
}
