// internal/handler/category.go
package handler

import (
	"net/http"

	"expense-hive/internal/domain"

	"github.com/gin-gonic/gin"
)

type CreateCategoriesRequest struct {
	Account    string            `json:"account"`
	Categories []domain.Category `json:"categories"`
}

type UpdateCategoriesRequest struct {
	ModifiedCategories []domain.Category `json:"modifiedCategories"`
}

type DeleteCategoriesRequest struct {
	DeletedCategories []string `json:"deletedCategories"`
}

// ListCategories godoc
// @Summary List an account's categories
// @Tags categories
// @Param accountId path string true "Account ID"
// @Success 200 {array} domain.Category
// @Failure 404 {object} map[string]string
// @Router /api/v1/categories/{accountId} [get]
func (h *Handler) ListCategories(c *gin.Context) {
	accountID, ok := account(c, c.Param("accountId"))
	if !ok {
		return
	}
	categories, err := h.tracker.ListCategories(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, err, "No categories found for this user")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// CreateCategories godoc
// @Summary Create a batch of categories
// @Tags categories
// @Param request body CreateCategoriesRequest true "Categories"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/v1/categories [post]
func (h *Handler) CreateCategories(c *gin.Context) {
	var req CreateCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	accountID, ok := account(c, req.Account)
	if !ok {
		return
	}
	created, err := h.tracker.CreateCategories(c.Request.Context(), accountID, req.Categories)
	if err != nil {
		writeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "categories": created})
}

// UpdateCategories godoc
// @Summary Rename or recolor categories
// @Tags categories
// @Param request body UpdateCategoriesRequest true "Modified categories"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]any
// @Router /api/v1/categories [put]
func (h *Handler) UpdateCategories(c *gin.Context) {
	var req UpdateCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	accountID, ok := account(c, "")
	if !ok {
		return
	}
	updated, err := h.tracker.UpdateCategories(c.Request.Context(), accountID, req.ModifiedCategories)
	if err != nil {
		writeError(c, err, "Category not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Categories updated successfully", "updatedCategories": updated})
}

// DeleteCategories godoc
// @Summary Delete categories by id
// @Tags categories
// @Param request body DeleteCategoriesRequest true "Category ids"
// @Success 200 {object} map[string]string
// @Router /api/v1/categories [delete]
func (h *Handler) DeleteCategories(c *gin.Context) {
	var req DeleteCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	accountID, ok := account(c, "")
	if !ok {
		return
	}
	if len(req.DeletedCategories) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No categories to delete."})
		return
	}
	deleted, err := h.tracker.DeleteCategories(c.Request.Context(), accountID, req.DeletedCategories)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Categories deleted successfully.", "deleted": deleted})
}
