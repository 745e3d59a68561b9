package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trip-service/internal/apperrors"
	"trip-service/internal/mocks"
	"trip-service/internal/models"
	"trip-service/internal/ws"
)

func setupExpenseRouter(handler *ExpenseHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", int64(1))
		c.Next()
	})
	r.POST("/groups/:group_id/activities/:activity_id/expenses", handler.CreateExpense)
	r.GET("/groups/:group_id/activities/:activity_id/expenses", handler.ListExpenses)
	return r
}

func newExpenseHandler(expenseRepo *mocks.ExpenseRepositoryMock, activityRepo *mocks.ActivityRepositoryMock, groupRepo *mocks.GroupRepositoryMock) *ExpenseHandler {
	return NewExpenseHandler(expenseRepo, activityRepo, groupRepo, ws.NewHub(), nil)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func stubActivity(activityRepo *mocks.ActivityRepositoryMock) {
	activityRepo.On("GetActivity", mock.Anything, int64(11)).
		Return(models.Activity{ID: 11, GroupID: 9, Type: models.ActivityEvent}, nil).Once()
}

func TestCreateExpenseSuccess(t *testing.T) {
	expenseRepo := new(mocks.ExpenseRepositoryMock)
	activityRepo := new(mocks.ActivityRepositoryMock)
	groupRepo := new(mocks.GroupRepositoryMock)
	router := setupExpenseRouter(newExpenseHandler(expenseRepo, activityRepo, groupRepo))

	stubActivity(activityRepo)
	groupRepo.On("IsMember", mock.Anything, int64(9), int64(1)).Return(true, nil).Once()
	expenseRepo.On("CreateExpense", mock.Anything, mock.MatchedBy(func(e models.Expense) bool {
		return e.ActivityID == 11 && e.Amount.String() == "30" && len(e.Splits) == 3
	})).Return(models.Expense{ID: 1, ActivityID: 11}, nil).Once()

	body := bytes.NewBufferString(`{
		"description": "Dinner bill",
		"amount": "30.00",
		"paid_by": 4,
		"splits": [
			{"group_member_id": 4, "amount": "10.00"},
			{"group_member_id": 5, "amount": "10.00"},
			{"group_member_id": 6, "amount": "10.00"}
		]
	}`)
	req := httptest.NewRequest(http.MethodPost, "/groups/9/activities/11/expenses", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	expenseRepo.AssertExpectations(t)
}

func TestCreateExpenseSplitMismatch(t *testing.T) {
	expenseRepo := new(mocks.ExpenseRepositoryMock)
	activityRepo := new(mocks.ActivityRepositoryMock)
	groupRepo := new(mocks.GroupRepositoryMock)
	router := setupExpenseRouter(newExpenseHandler(expenseRepo, activityRepo, groupRepo))

	stubActivity(activityRepo)
	groupRepo.On("IsMember", mock.Anything, int64(9), int64(1)).Return(true, nil).Once()
	expenseRepo.On("CreateExpense", mock.Anything, mock.Anything).
		Return(nil, apperrors.InvalidExpenseSplit()).Once()

	body := bytes.NewBufferString(`{
		"description": "Dinner bill",
		"amount": "30.00",
		"paid_by": 4,
		"splits": [
			{"group_member_id": 4, "amount": "10.00"},
			{"group_member_id": 5, "amount": "10.00"}
		]
	}`)
	req := httptest.NewRequest(http.MethodPost, "/groups/9/activities/11/expenses", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "INVALID_EXPENSE_SPLIT", resp.ErrorCode)
}

func TestCreateExpenseNonPositiveAmount(t *testing.T) {
	expenseRepo := new(mocks.ExpenseRepositoryMock)
	activityRepo := new(mocks.ActivityRepositoryMock)
	groupRepo := new(mocks.GroupRepositoryMock)
	router := setupExpenseRouter(newExpenseHandler(expenseRepo, activityRepo, groupRepo))

	stubActivity(activityRepo)
	groupRepo.On("IsMember", mock.Anything, int64(9), int64(1)).Return(true, nil).Once()

	body := bytes.NewBufferString(`{"description": "Free", "amount": "-1", "paid_by": 4}`)
	req := httptest.NewRequest(http.MethodPost, "/groups/9/activities/11/expenses", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	expenseRepo.AssertNotCalled(t, "CreateExpense")
}

func TestListExpensesTotals(t *testing.T) {
	expenseRepo := new(mocks.ExpenseRepositoryMock)
	activityRepo := new(mocks.ActivityRepositoryMock)
	groupRepo := new(mocks.GroupRepositoryMock)
	router := setupExpenseRouter(newExpenseHandler(expenseRepo, activityRepo, groupRepo))

	stubActivity(activityRepo)
	groupRepo.On("IsMember", mock.Anything, int64(9), int64(1)).Return(true, nil).Once()
	expenseRepo.On("ListExpensesByActivity", mock.Anything, int64(11)).Return([]models.Expense{
		{ID: 1, ActivityID: 11, Amount: dec(t, "12.50")},
		{ID: 2, ActivityID: 11, Amount: dec(t, "7.50")},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/groups/9/activities/11/expenses", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "20", resp.Total)
	expenseRepo.AssertExpectations(t)
}
