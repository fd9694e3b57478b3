// internal/handler/handler.go
package handler

import (
	"net/http"

	"expense-hive/internal/domain"
	"expense-hive/internal/middleware"
	"expense-hive/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	tracker *service.Tracker
}

func New(tracker *service.Tracker) *Handler {
	return &Handler{tracker: tracker}
}

// account resolves the account a request acts on. An empty id means the
// caller's own account; any other account is refused.
func account(c *gin.Context, id string) (string, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "No token provided"})
		return "", false
	}
	if id == "" {
		return p.AccountID, true
	}
	if !domain.ValidID(id) {
		writeError(c, domain.ErrInvalidID, "")
		return "", false
	}
	if id != p.AccountID {
		forbidden(c)
		return "", false
	}
	return id, true
}
