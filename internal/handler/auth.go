// internal/handler/auth.go
package handler

import (
	"net/http"

	"expense-hive/internal/domain"
	"expense-hive/internal/service"

	"github.com/gin-gonic/gin"
)

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func sessionResponse(s domain.Session) gin.H {
	return gin.H{
		"success":      true,
		"token":        s.AccessToken,
		"refreshToken": s.RefreshToken,
		"expiresAt":    s.ExpiresAt,
		"account":      s.AccountID,
	}
}

// Register godoc
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Credentials"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	if _, err := h.tracker.Register(c.Request.Context(), req); err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User created successfully"})
}

// Login godoc
// @Summary Log in and receive a session
// @Tags auth
// @Param request body service.LoginInput true "Credentials"
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]any
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req service.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	session, err := h.tracker.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

// Refresh godoc
// @Summary Trade a refresh token for a new session
// @Tags auth
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]any
// @Router /api/v1/auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	session, err := h.tracker.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}
