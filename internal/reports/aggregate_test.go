package reports

import (
	"testing"
	"time"

	"github.com/Utpal29/coinly/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	t.Run("income, expenses and balance", func(t *testing.T) {
		txs := []models.Transaction{
			tx(models.NewDate(2026, time.January, 1), 5000, "Salary"),
			tx(models.NewDate(2026, time.January, 2), -150.75, "Food & Dining"),
			tx(models.NewDate(2026, time.January, 3), -1200, "Housing"),
		}

		totals := ComputeTotals(txs)
		assert.True(t, totals.Income.Equal(decimal.NewFromInt(5000)), "income %s", totals.Income)
		assert.True(t, totals.Expenses.Equal(decimal.NewFromFloat(1350.75)), "expenses %s", totals.Expenses)
		assert.True(t, totals.Balance.Equal(decimal.NewFromFloat(3649.25)), "balance %s", totals.Balance)
		assert.Equal(t, 3, totals.Count)
	})

	t.Run("balance identity holds exactly", func(t *testing.T) {
		// Classic float trap: 0.1 + 0.2. Decimal arithmetic must not drift.
		txs := []models.Transaction{
			tx(models.NewDate(2026, time.January, 1), 0.3, "Salary"),
			tx(models.NewDate(2026, time.January, 2), -0.1, "Food & Dining"),
			tx(models.NewDate(2026, time.January, 3), -0.2, "Food & Dining"),
		}

		totals := ComputeTotals(txs)
		assert.True(t, totals.Income.Sub(totals.Expenses).Equal(totals.Balance))
		assert.True(t, totals.Balance.IsZero(), "balance %s", totals.Balance)
	})

	t.Run("empty input is all zeros", func(t *testing.T) {
		totals := ComputeTotals(nil)
		assert.True(t, totals.Income.IsZero())
		assert.True(t, totals.Expenses.IsZero())
		assert.True(t, totals.Balance.IsZero())
		assert.Equal(t, 0, totals.Count)
	})
}

func TestCurrentMonthTotals(t *testing.T) {
	now := time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		tx(models.NewDate(2026, time.February, 5), 1000, "Salary"),
		tx(models.NewDate(2026, time.January, 5), 9999, "Salary"),
	}

	totals := CurrentMonthTotals(txs, now)
	assert.True(t, totals.Income.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 1, totals.Count)
}

func TestSavingsRate(t *testing.T) {
	t.Run("normal", func(t *testing.T) {
		rate := SavingsRate(decimal.NewFromInt(5000), decimal.NewFromInt(1250))
		assert.InDelta(t, 75.0, rate, 1e-9)
	})

	t.Run("zero income returns zero, not NaN", func(t *testing.T) {
		rate := SavingsRate(decimal.Zero, decimal.NewFromInt(500))
		assert.Equal(t, 0.0, rate)
	})
}

func TestCategoryBreakdown(t *testing.T) {
	t.Run("shares sum to 100", func(t *testing.T) {
		txs := []models.Transaction{
			tx(models.NewDate(2026, time.January, 1), 5000, "Salary"), // ignored
			tx(models.NewDate(2026, time.January, 2), -150.75, "Food & Dining"),
			tx(models.NewDate(2026, time.January, 3), -1200, "Housing"),
		}

		shares := CategoryBreakdown(txs)
		require.Len(t, shares, 2)

		// Largest first.
		assert.Equal(t, "Housing", shares[0].Category)
		assert.True(t, shares[0].Amount.Equal(decimal.NewFromInt(1200)))
		assert.InDelta(t, 88.8, shares[0].Percent, 0.1)

		sum := 0.0
		for _, s := range shares {
			sum += s.Percent
		}
		assert.InDelta(t, 100.0, sum, 1e-9)
	})

	t.Run("no expenses means zero shares", func(t *testing.T) {
		txs := []models.Transaction{
			tx(models.NewDate(2026, time.January, 1), 5000, "Salary"),
		}
		assert.Empty(t, CategoryBreakdown(txs))
	})

	t.Run("tie broken by name", func(t *testing.T) {
		txs := []models.Transaction{
			tx(models.NewDate(2026, time.January, 1), -10, "Utilities"),
			tx(models.NewDate(2026, time.January, 2), -10, "Education"),
		}
		shares := CategoryBreakdown(txs)
		require.Len(t, shares, 2)
		assert.Equal(t, "Education", shares[0].Category)
	})
}

func TestMonthlySeries(t *testing.T) {
	now := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	t.Run("six dense chronological buckets", func(t *testing.T) {
		txs := []models.Transaction{
			tx(models.NewDate(2026, time.January, 10), 3000, "Salary"),
			tx(models.NewDate(2026, time.June, 1), -200, "Shopping"),
			// Outside the window entirely.
			tx(models.NewDate(2025, time.December, 31), 9999, "Salary"),
		}

		series := MonthlySeries(txs, 6, now)
		require.Len(t, series, 6)
		assert.Equal(t, "Jan 2026", series[0].Month)
		assert.Equal(t, "Jun 2026", series[5].Month)

		assert.True(t, series[0].Income.Equal(decimal.NewFromInt(3000)))
		assert.True(t, series[5].Expenses.Equal(decimal.NewFromInt(200)))

		// Months with no transactions still appear, zero-valued.
		for _, i := range []int{1, 2, 3, 4} {
			assert.True(t, series[i].Income.IsZero(), series[i].Month)
			assert.True(t, series[i].Expenses.IsZero(), series[i].Month)
		}
	})

	t.Run("window spans a year boundary", func(t *testing.T) {
		series := MonthlySeries(nil, 6, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC))
		require.Len(t, series, 6)
		assert.Equal(t, "Sep 2025", series[0].Month)
		assert.Equal(t, "Feb 2026", series[5].Month)
	})

	t.Run("per-month savings rate", func(t *testing.T) {
		txs := []models.Transaction{
			tx(models.NewDate(2026, time.June, 1), 1000, "Salary"),
			tx(models.NewDate(2026, time.June, 2), -250, "Shopping"),
		}
		series := MonthlySeries(txs, 1, now)
		require.Len(t, series, 1)
		assert.InDelta(t, 75.0, series[0].SavingsRate, 1e-9)
	})
}

func TestRunningBalance(t *testing.T) {
	series := []MonthBucket{
		{Month: "Jan 2026", Income: decimal.NewFromInt(1000), Expenses: decimal.NewFromInt(400)},
		{Month: "Feb 2026", Income: decimal.Zero, Expenses: decimal.NewFromInt(100)},
		{Month: "Mar 2026", Income: decimal.NewFromInt(50), Expenses: decimal.Zero},
	}

	points := RunningBalance(series)
	require.Len(t, points, 3)
	assert.True(t, points[0].Balance.Equal(decimal.NewFromInt(600)))
	assert.True(t, points[1].Balance.Equal(decimal.NewFromInt(500)))
	assert.True(t, points[2].Balance.Equal(decimal.NewFromInt(550)))
}

func TestTopExpenses(t *testing.T) {
	txs := []models.Transaction{
		tx(models.NewDate(2026, time.January, 1), 5000, "Salary"),
		tx(models.NewDate(2026, time.January, 2), -150.75, "Food & Dining"),
		tx(models.NewDate(2026, time.January, 3), -1200, "Housing"),
		tx(models.NewDate(2026, time.January, 4), -80, "Transportation"),
	}

	top := TopExpenses(txs, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "Housing", top[0].Category)
	assert.Equal(t, "Food & Dining", top[1].Category)

	t.Run("n larger than the list", func(t *testing.T) {
		assert.Len(t, TopExpenses(txs, 10), 3)
	})
}

func TestGroupByDate(t *testing.T) {
	txs := []models.Transaction{
		tx(models.NewDate(2026, time.January, 5), -10, "Shopping"),
		tx(models.NewDate(2026, time.January, 4), -20, "Shopping"),
		tx(models.NewDate(2026, time.January, 5), -30, "Food & Dining"),
	}

	groups := GroupByDate(txs)
	require.Len(t, groups, 2)

	// Most recent first, insertion order inside the group.
	assert.Equal(t, "Monday, January 5, 2026", groups[0].Label)
	require.Len(t, groups[0].Transactions, 2)
	assert.Equal(t, "Shopping", groups[0].Transactions[0].Category)
	assert.Equal(t, "Food & Dining", groups[0].Transactions[1].Category)

	assert.Equal(t, "Sunday, January 4, 2026", groups[1].Label)
}

func TestDailySummaries(t *testing.T) {
	txs := []models.Transaction{
		tx(models.NewDate(2026, time.January, 5), 100, "Salary"),
		tx(models.NewDate(2026, time.January, 5), -40, "Food & Dining"),
		tx(models.NewDate(2026, time.January, 2), -15, "Shopping"),
	}

	days := DailySummaries(txs)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-01-02", days[0].Date)
	assert.True(t, days[0].Expense.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, "2026-01-05", days[1].Date)
	assert.True(t, days[1].Income.Equal(decimal.NewFromInt(100)))
	assert.True(t, days[1].Expense.Equal(decimal.NewFromInt(40)))
}
