package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"trip-service/internal/apperrors"
	"trip-service/internal/middleware"
	"trip-service/internal/models"
	"trip-service/internal/repositories"
	"trip-service/internal/telemetry"
	"trip-service/internal/ws"
)

// ExpenseHandler manages activity expense endpoints.
type ExpenseHandler struct {
	expenseRepo  repositories.ExpenseRepository
	activityRepo repositories.ActivityRepository
	groupRepo    repositories.GroupRepository
	hub          *ws.Hub
	audit        *telemetry.AuditEmitter
}

// NewExpenseHandler constructs an ExpenseHandler.
func NewExpenseHandler(expenseRepo repositories.ExpenseRepository, activityRepo repositories.ActivityRepository, groupRepo repositories.GroupRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *ExpenseHandler {
	return &ExpenseHandler{
		expenseRepo:  expenseRepo,
		activityRepo: activityRepo,
		groupRepo:    groupRepo,
		hub:          hub,
		audit:        audit,
	}
}

// CreateExpense handles POST /api/groups/:group_id/activities/:activity_id/expenses.
// Splits, when present, must sum exactly to the amount.
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	groupID, activityID, ok := h.resolveActivity(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	var req struct {
		Description string          `json:"description" binding:"required"`
		Amount      decimal.Decimal `json:"amount" binding:"required"`
		PaidBy      int64           `json:"paid_by" binding:"required"`
		Splits      []struct {
			GroupMemberID int64           `json:"group_member_id" binding:"required"`
			Amount        decimal.Decimal `json:"amount" binding:"required"`
			IsPaid        bool            `json:"is_paid"`
		} `json:"splits"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request payload", nil)
		return
	}
	if !req.Amount.IsPositive() {
		respondError(c, apperrors.Validation("amount must be positive"))
		return
	}

	splits := make([]models.ExpenseSplit, 0, len(req.Splits))
	for _, s := range req.Splits {
		if !s.Amount.IsPositive() {
			respondError(c, apperrors.Validation("split amounts must be positive"))
			return
		}
		splits = append(splits, models.ExpenseSplit{
			MemberID: s.GroupMemberID,
			Amount:   s.Amount,
			IsPaid:   s.IsPaid,
		})
	}

	expense, err := h.expenseRepo.CreateExpense(c.Request.Context(), models.Expense{
		ActivityID:  activityID,
		Description: req.Description,
		Amount:      req.Amount,
		PaidBy:      req.PaidBy,
		Splits:      splits,
	})
	if err != nil {
		h.emitAudit(c, "ERROR", "expense creation failed")
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "expense_created", expense)
	h.emitAudit(c, "INFO", "Expense created")
	c.JSON(http.StatusCreated, expense)
}

// ListExpenses handles GET /api/groups/:group_id/activities/:activity_id/expenses.
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	groupID, activityID, ok := h.resolveActivity(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	expenses, err := h.expenseRepo.ListExpensesByActivity(c.Request.Context(), activityID)
	if err != nil {
		respondError(c, err)
		return
	}

	total := decimal.Zero
	for _, expense := range expenses {
		total = total.Add(expense.Amount)
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses, "total": total})
}

// GetExpense handles GET /api/groups/:group_id/activities/:activity_id/expenses/:expense_id.
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	groupID, activityID, ok := h.resolveActivity(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	expense, ok := h.loadExpense(c, activityID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, expense)
}

// DeleteExpense handles DELETE /api/groups/:group_id/activities/:activity_id/expenses/:expense_id.
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	groupID, activityID, ok := h.resolveActivity(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	expense, ok := h.loadExpense(c, activityID)
	if !ok {
		return
	}

	if err := h.expenseRepo.DeleteExpense(c.Request.Context(), expense.ID); err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "expense_deleted", gin.H{"expense_id": expense.ID})
	h.emitAudit(c, "INFO", "Expense deleted")
	c.Status(http.StatusNoContent)
}

// MarkSplitPaid handles PUT /api/groups/:group_id/activities/:activity_id/expenses/:expense_id/splits/:split_id.
func (h *ExpenseHandler) MarkSplitPaid(c *gin.Context) {
	groupID, activityID, ok := h.resolveActivity(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	expense, ok := h.loadExpense(c, activityID)
	if !ok {
		return
	}
	splitID, err := strconv.ParseInt(c.Param("split_id"), 10, 64)
	if err != nil {
		respondError(c, apperrors.Validation("invalid split id"))
		return
	}

	var req struct {
		IsPaid *bool `json:"is_paid" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request payload", nil)
		return
	}

	split, err := h.expenseRepo.MarkSplitPaid(c.Request.Context(), expense.ID, splitID, *req.IsPaid)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "expense_split_updated", split)
	h.emitAudit(c, "INFO", "Expense split updated")
	c.JSON(http.StatusOK, split)
}

// resolveActivity parses the path ids and verifies the activity belongs to
// the group.
func (h *ExpenseHandler) resolveActivity(c *gin.Context) (int64, int64, bool) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return 0, 0, false
	}
	activityID, err := strconv.ParseInt(c.Param("activity_id"), 10, 64)
	if err != nil {
		respondError(c, apperrors.Validation("invalid activity id"))
		return 0, 0, false
	}

	activity, err := h.activityRepo.GetActivity(c.Request.Context(), activityID)
	if err != nil {
		respondError(c, err)
		return 0, 0, false
	}
	if activity.GroupID != groupID {
		respondError(c, apperrors.ActivityNotFound(activityID))
		return 0, 0, false
	}
	return groupID, activityID, true
}

// loadExpense fetches the expense and verifies it belongs to the activity.
func (h *ExpenseHandler) loadExpense(c *gin.Context, activityID int64) (models.Expense, bool) {
	expenseID, err := strconv.ParseInt(c.Param("expense_id"), 10, 64)
	if err != nil {
		respondError(c, apperrors.Validation("invalid expense id"))
		return models.Expense{}, false
	}

	expense, err := h.expenseRepo.GetExpense(c.Request.Context(), expenseID)
	if err != nil {
		respondError(c, err)
		return models.Expense{}, false
	}
	if expense.ActivityID != activityID {
		respondError(c, apperrors.ExpenseNotFound(expenseID))
		return models.Expense{}, false
	}
	return expense, true
}

func (h *ExpenseHandler) requireMember(c *gin.Context, groupID int64) bool {
	userID := middleware.UserID(c)
	member, err := h.groupRepo.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !member {
		h.emitAudit(c, "ERROR", "not allowed")
		respondError(c, apperrors.MemberRequired())
		return false
	}
	return true
}

func (h *ExpenseHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
