// internal/handler/router.go
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"expense-hive/internal/auth"
	"expense-hive/internal/config"
	"expense-hive/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	authRateLimit  = 30
	authRateWindow = time.Minute
)

// Health godoc
// @Summary Liveness and storage reachability
// @Tags health
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/v1/health [get]
func (h *Handler) Health(c *gin.Context) {
	store := h.tracker.Store()
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		slog.Warn("health check failed", "storage", store.Name(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "storage": store.Name()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": store.Name()})
}

func corsConfig(cfg config.Config) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if cfg.AllowAllOrigins() {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.CORSOrigins
		cc.AllowCredentials = true
	}
	return cc
}

func NewRouter(h *Handler, tokens *auth.TokenService, cfg config.Config, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestIDMiddleware(),
		middleware.AccessLog(logger),
		gin.Recovery(),
		cors.New(corsConfig(cfg)),
	)

	limiter := middleware.NewRateLimiter(authRateLimit, authRateWindow)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	v1 := router.Group("/api/v1")
	v1.GET("/health", h.Health)

	authGroup := v1.Group("/auth", limiter.Middleware())
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
	}

	protected := v1.Group("/", authMiddleware.RequireAuth())
	{
		protected.GET("/expenses/:accountId", h.ListExpenses)
		protected.GET("/expenses/:accountId/summary", h.Summary)
		protected.POST("/expenses", h.CreateExpenses)
		protected.PUT("/expenses", h.UpdateExpenses)
		protected.DELETE("/expenses", h.DeleteExpenses)

		protected.GET("/categories/:accountId", h.ListCategories)
		protected.POST("/categories", h.CreateCategories)
		protected.PUT("/categories", h.UpdateCategories)
		protected.DELETE("/categories", h.DeleteCategories)
	}

	return router
}
