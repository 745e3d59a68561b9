package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSplitsSumTo(t *testing.T) {
	total := dec("30.00")

	require.True(t, SplitsSumTo(total, []ExpenseSplit{
		{Amount: dec("10.00")},
		{Amount: dec("10.00")},
		{Amount: dec("10.00")},
	}))

	require.False(t, SplitsSumTo(total, []ExpenseSplit{
		{Amount: dec("10.00")},
		{Amount: dec("10.00")},
	}))

	// exact equality ignores trailing zeros
	require.True(t, SplitsSumTo(dec("30"), []ExpenseSplit{
		{Amount: dec("15.000")},
		{Amount: dec("15")},
	}))

	// off by a cent is a mismatch
	require.False(t, SplitsSumTo(total, []ExpenseSplit{
		{Amount: dec("10.00")},
		{Amount: dec("10.00")},
		{Amount: dec("10.01")},
	}))

	require.True(t, SplitsSumTo(decimal.Zero, nil))
}
