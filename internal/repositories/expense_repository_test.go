package repositories

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"trip-service/internal/apperrors"
	"trip-service/internal/models"
)

func TestCreateExpenseSplitMismatchRejectedBeforeTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExpenseRepo(db)

	_, err := repo.CreateExpense(context.Background(), models.Expense{
		ActivityID:  11,
		Description: "Dinner",
		Amount:      decimal.RequireFromString("30.00"),
		PaidBy:      4,
		Splits: []models.ExpenseSplit{
			{MemberID: 4, Amount: decimal.RequireFromString("10.00")},
			{MemberID: 5, Amount: decimal.RequireFromString("10.00")},
		},
	})
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, "INVALID_EXPENSE_SPLIT", appErr.Code)

	// nothing reaches the database
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateExpensePayerOutsideGroup(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExpenseRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT group_id FROM activities WHERE id=$1`)).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"group_id"}).AddRow(int64(9)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM group_members WHERE id=$1 AND group_id=$2)`)).
		WithArgs(int64(4), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := repo.CreateExpense(context.Background(), models.Expense{
		ActivityID:  11,
		Description: "Dinner",
		Amount:      decimal.RequireFromString("30.00"),
		PaidBy:      4,
	})
	require.True(t, apperrors.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteExpenseNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExpenseRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM activity_expenses WHERE id=$1`)).
		WithArgs(int64(77)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteExpense(context.Background(), 77)
	require.True(t, apperrors.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
