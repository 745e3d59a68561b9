package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"trip-service/internal/apperrors"
	"trip-service/internal/models"
)

// ExpenseRepository abstracts expense and split persistence.
type ExpenseRepository interface {
	CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error)
	GetExpense(ctx context.Context, expenseID int64) (models.Expense, error)
	ListExpensesByActivity(ctx context.Context, activityID int64) ([]models.Expense, error)
	DeleteExpense(ctx context.Context, expenseID int64) error
	MarkSplitPaid(ctx context.Context, expenseID, splitID int64, isPaid bool) (models.ExpenseSplit, error)
}

// ExpenseRepo is a sqlx implementation of ExpenseRepository.
type ExpenseRepo struct {
	db *sqlx.DB
}

// NewExpenseRepo constructs an ExpenseRepo.
func NewExpenseRepo(db *sqlx.DB) *ExpenseRepo {
	return &ExpenseRepo{db: db}
}

// CreateExpense inserts an expense and its splits atomically. The payer and
// every split member must belong to the activity's group, and the splits
// must sum exactly to the amount.
func (r *ExpenseRepo) CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	if len(expense.Splits) > 0 && !models.SplitsSumTo(expense.Amount, expense.Splits) {
		return models.Expense{}, apperrors.InvalidExpenseSplit()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Expense{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var groupID int64
	err = tx.GetContext(ctx, &groupID, `SELECT group_id FROM activities WHERE id=$1`, expense.ActivityID)
	if errors.Is(err, sql.ErrNoRows) {
		err = apperrors.ActivityNotFound(expense.ActivityID)
		return models.Expense{}, err
	}
	if err != nil {
		return models.Expense{}, err
	}

	memberInGroup := func(memberID int64) (bool, error) {
		var belongs bool
		err := tx.GetContext(ctx, &belongs,
			`SELECT EXISTS(SELECT 1 FROM group_members WHERE id=$1 AND group_id=$2)`, memberID, groupID)
		return belongs, err
	}

	var belongs bool
	if belongs, err = memberInGroup(expense.PaidBy); err != nil {
		return models.Expense{}, err
	}
	if !belongs {
		err = apperrors.MemberNotFound()
		return models.Expense{}, err
	}

	var created models.Expense
	if err = tx.GetContext(ctx, &created, `
		INSERT INTO activity_expenses (activity_id, description, amount, paid_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, activity_id, description, amount, paid_by, created_at, updated_at`,
		expense.ActivityID, expense.Description, expense.Amount, expense.PaidBy); err != nil {
		return models.Expense{}, err
	}

	for _, split := range expense.Splits {
		if belongs, err = memberInGroup(split.MemberID); err != nil {
			return models.Expense{}, err
		}
		if !belongs {
			err = apperrors.MemberNotFound()
			return models.Expense{}, err
		}

		var inserted models.ExpenseSplit
		if err = tx.GetContext(ctx, &inserted, `
			INSERT INTO activity_expense_splits (expense_id, group_member_id, amount, is_paid)
			VALUES ($1, $2, $3, $4)
			RETURNING id, expense_id, group_member_id, amount, is_paid, created_at, updated_at`,
			created.ID, split.MemberID, split.Amount, split.IsPaid); err != nil {
			return models.Expense{}, err
		}
		created.Splits = append(created.Splits, inserted)
	}

	if err = tx.Commit(); err != nil {
		return models.Expense{}, err
	}
	return created, nil
}

// GetExpense fetches an expense with its splits.
func (r *ExpenseRepo) GetExpense(ctx context.Context, expenseID int64) (models.Expense, error) {
	var expense models.Expense
	err := r.db.GetContext(ctx, &expense, `
		SELECT id, activity_id, description, amount, paid_by, created_at, updated_at
		FROM activity_expenses WHERE id=$1`, expenseID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Expense{}, apperrors.ExpenseNotFound(expenseID)
	}
	if err != nil {
		return models.Expense{}, err
	}

	splits := []models.ExpenseSplit{}
	if err := r.db.SelectContext(ctx, &splits, `
		SELECT id, expense_id, group_member_id, amount, is_paid, created_at, updated_at
		FROM activity_expense_splits WHERE expense_id=$1
		ORDER BY id`, expenseID); err != nil {
		return models.Expense{}, err
	}
	expense.Splits = splits
	return expense, nil
}

// ListExpensesByActivity returns an activity's expenses with their splits.
func (r *ExpenseRepo) ListExpensesByActivity(ctx context.Context, activityID int64) ([]models.Expense, error) {
	expenses := []models.Expense{}
	err := r.db.SelectContext(ctx, &expenses, `
		SELECT id, activity_id, description, amount, paid_by, created_at, updated_at
		FROM activity_expenses WHERE activity_id=$1
		ORDER BY created_at`, activityID)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	ids := make([]int64, 0, len(expenses))
	index := make(map[int64]int, len(expenses))
	for i, expense := range expenses {
		ids = append(ids, expense.ID)
		index[expense.ID] = i
	}

	query, args, err := sqlx.In(`
		SELECT id, expense_id, group_member_id, amount, is_paid, created_at, updated_at
		FROM activity_expense_splits WHERE expense_id IN (?)
		ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	splits := []models.ExpenseSplit{}
	if err := r.db.SelectContext(ctx, &splits, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, split := range splits {
		i := index[split.ExpenseID]
		expenses[i].Splits = append(expenses[i].Splits, split)
	}
	return expenses, nil
}

// DeleteExpense removes an expense; its splits cascade.
func (r *ExpenseRepo) DeleteExpense(ctx context.Context, expenseID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activity_expenses WHERE id=$1`, expenseID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ExpenseNotFound(expenseID)
	}
	return nil
}

// MarkSplitPaid sets the paid flag on one split.
func (r *ExpenseRepo) MarkSplitPaid(ctx context.Context, expenseID, splitID int64, isPaid bool) (models.ExpenseSplit, error) {
	var split models.ExpenseSplit
	err := r.db.GetContext(ctx, &split, `
		UPDATE activity_expense_splits SET is_paid=$3, updated_at=NOW()
		WHERE id=$2 AND expense_id=$1
		RETURNING id, expense_id, group_member_id, amount, is_paid, created_at, updated_at`,
		expenseID, splitID, isPaid)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ExpenseSplit{}, apperrors.ExpenseNotFound(expenseID)
	}
	return split, err
}
