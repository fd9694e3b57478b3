// internal/handler/expense.go
package handler

import (
	"net/http"

	"expense-hive/internal/domain"

	"github.com/gin-gonic/gin"
)

const noExpenses = "No expenses found for this user"

type CreateExpensesRequest struct {
	Account  string           `json:"account"`
	Expenses []domain.Expense `json:"expenses"`
}

type UpdateExpensesRequest struct {
	ModifiedExpenses []domain.Expense `json:"modifiedExpenses"`
}

type DeleteExpensesRequest struct {
	DeletedExpenses []string `json:"deletedExpenses"`
}

// ListExpenses godoc
// @Summary List an account's expenses
// @Tags expenses
// @Produce json
// @Param accountId path string true "Account ID"
// @Success 200 {array} domain.Expense
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Router /api/v1/expenses/{accountId} [get]
func (h *Handler) ListExpenses(c *gin.Context) {
	accountID, ok := account(c, c.Param("accountId"))
	if !ok {
		return
	}
	expenses, err := h.tracker.ListExpenses(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, err, noExpenses)
		return
	}
	c.JSON(http.StatusOK, expenses)
}

// Summary godoc
// @Summary Expenses in a timeframe, summed per category
// @Tags expenses
// @Produce json
// @Param accountId path string true "Account ID"
// @Param timeframe query string false "daily, weekly, monthly or yearly"
// @Param date query string false "Reference date, YYYY-MM-DD"
// @Success 200 {object} aggregate.Result
// @Failure 400 {object} map[string]any
// @Failure 422 {object} map[string]any
// @Router /api/v1/expenses/{accountId}/summary [get]
func (h *Handler) Summary(c *gin.Context) {
	accountID, ok := account(c, c.Param("accountId"))
	if !ok {
		return
	}
	result, err := h.tracker.Summary(c.Request.Context(), accountID, c.Query("timeframe"), c.Query("date"))
	if err != nil {
		writeError(c, err, noExpenses)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateExpenses godoc
// @Summary Create a batch of expenses
// @Tags expenses
// @Accept json
// @Produce json
// @Param request body CreateExpensesRequest true "Expenses"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Router /api/v1/expenses [post]
func (h *Handler) CreateExpenses(c *gin.Context) {
	var req CreateExpensesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	accountID, ok := account(c, req.Account)
	if !ok {
		return
	}
	created, err := h.tracker.CreateExpenses(c.Request.Context(), accountID, req.Expenses)
	if err != nil {
		writeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "expenses": created})
}

// UpdateExpenses godoc
// @Summary Update a batch of expenses
// @Tags expenses
// @Param request body UpdateExpensesRequest true "Modified expenses"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Router /api/v1/expenses [put]
func (h *Handler) UpdateExpenses(c *gin.Context) {
	var req UpdateExpensesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	accountID, ok := account(c, "")
	if !ok {
		return
	}
	updated, err := h.tracker.UpdateExpenses(c.Request.Context(), accountID, req.ModifiedExpenses)
	if err != nil {
		writeError(c, err, "Expense not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expenses updated successfully", "updatedExpenses": updated})
}

// DeleteExpenses godoc
// @Summary Delete expenses by id
// @Tags expenses
// @Param request body DeleteExpensesRequest true "Expense ids"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/v1/expenses [delete]
func (h *Handler) DeleteExpenses(c *gin.Context) {
	var req DeleteExpensesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	accountID, ok := account(c, "")
	if !ok {
		return
	}
	if len(req.DeletedExpenses) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No expenses to delete."})
		return
	}
	deleted, err := h.tracker.DeleteExpenses(c.Request.Context(), accountID, req.DeletedExpenses)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expenses deleted successfully.", "deleted": deleted})
}
