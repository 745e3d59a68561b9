package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a cost incurred within an activity, paid by one group member
// and optionally split among members.
type Expense struct {
	ID          int64           `db:"id" json:"id"`
	ActivityID  int64           `db:"activity_id" json:"activity_id"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	PaidBy      int64           `db:"paid_by" json:"paid_by"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`

	Splits []ExpenseSplit `json:"splits,omitempty"`
}

// ExpenseSplit allocates part of an expense to one group member.
type ExpenseSplit struct {
	ID        int64           `db:"id" json:"id"`
	ExpenseID int64           `db:"expense_id" json:"expense_id"`
	MemberID  int64           `db:"group_member_id" json:"group_member_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	IsPaid    bool            `db:"is_paid" json:"is_paid"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// SplitsSumTo reports whether the split amounts sum exactly to total.
// Exact decimal equality; no rounding tolerance.
func SplitsSumTo(total decimal.Decimal, splits []ExpenseSplit) bool {
	sum := decimal.Zero
	for _, s := range splits {
		sum = sum.Add(s.Amount)
	}
	return sum.Equal(total)
}
