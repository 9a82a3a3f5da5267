package reports

import (
	"sort"
	"time"

	"github.com/Utpal29/coinly/internal/models"
	"github.com/shopspring/decimal"
)

// Totals holds period income/expense/balance sums. Expenses is always the
// positive magnitude; Balance = Income - Expenses.
type Totals struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
	Count    int             `json:"transaction_count"`
}

// CategoryShare is one slice of the expense breakdown.
type CategoryShare struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Percent  float64         `json:"percent"`
}

// MonthBucket is one point of the monthly trend series.
type MonthBucket struct {
	Month       string          `json:"month"` // e.g. "Jan 2026"
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	SavingsRate float64         `json:"savings_rate"`
}

// BalancePoint is one point of the cumulative balance curve.
type BalancePoint struct {
	Month   string          `json:"month"`
	Balance decimal.Decimal `json:"balance"`
}

// DateGroup collects the transactions sharing one display date.
type DateGroup struct {
	Label        string               `json:"label"` // e.g. "Monday, January 5, 2026"
	Date         models.Date          `json:"date"`
	Transactions []models.Transaction `json:"transactions"`
}

// DailySummary is one calendar day's income/expense totals. Expense is the
// positive magnitude.
type DailySummary struct {
	Date    string          `json:"date"` // YYYY-MM-DD
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// ComputeTotals sums income and expense magnitudes over the whole list.
// Empty input yields all-zero totals.
func ComputeTotals(txs []models.Transaction) Totals {
	t := Totals{Income: decimal.Zero, Expenses: decimal.Zero, Balance: decimal.Zero}
	for _, tx := range txs {
		if tx.IsIncome() {
			t.Income = t.Income.Add(tx.Amount)
		} else {
			t.Expenses = t.Expenses.Add(tx.Amount.Abs())
		}
		t.Count++
	}
	t.Balance = t.Income.Sub(t.Expenses)
	return t
}

// CurrentMonthTotals restricts the list to the reference time's calendar
// month before summing.
func CurrentMonthTotals(txs []models.Transaction, now time.Time) Totals {
	f := Filter{Range: RangeThisMonth}
	return ComputeTotals(f.Apply(txs, now))
}

// SavingsRate returns (income - expenses) / income * 100, and 0 when
// income is zero rather than dividing by zero.
func SavingsRate(income, expenses decimal.Decimal) float64 {
	if income.IsZero() {
		return 0
	}
	rate, _ := income.Sub(expenses).Div(income).Mul(decimal.NewFromInt(100)).Float64()
	return rate
}

// CategoryBreakdown sums expense magnitudes per category and computes each
// category's percentage share. Shares are all zero when there are no
// expenses. Order is amount descending, then name ascending for ties.
func CategoryBreakdown(txs []models.Transaction) []CategoryShare {
	byCategory := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, tx := range txs {
		if tx.IsIncome() {
			continue
		}
		abs := tx.Amount.Abs()
		byCategory[tx.Category] = byCategory[tx.Category].Add(abs)
		total = total.Add(abs)
	}

	shares := make([]CategoryShare, 0, len(byCategory))
	for name, amount := range byCategory {
		percent := 0.0
		if !total.IsZero() {
			percent, _ = amount.Div(total).Mul(decimal.NewFromInt(100)).Float64()
		}
		shares = append(shares, CategoryShare{Category: name, Amount: amount, Percent: percent})
	}
	sort.Slice(shares, func(i, j int) bool {
		if cmp := shares[i].Amount.Cmp(shares[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}

// MonthlySeries buckets transactions into the trailing n calendar months
// ending at the reference time's month. The series is dense: months with
// no transactions appear with zero sums. Buckets are chronological.
func MonthlySeries(txs []models.Transaction, n int, now time.Time) []MonthBucket {
	if n <= 0 {
		return []MonthBucket{}
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)
	buckets := make([]MonthBucket, n)
	income := make([]decimal.Decimal, n)
	expenses := make([]decimal.Decimal, n)
	for i := range buckets {
		m := first.AddDate(0, i, 0)
		buckets[i].Month = m.Format("Jan 2006")
		income[i] = decimal.Zero
		expenses[i] = decimal.Zero
	}

	for _, tx := range txs {
		idx := monthsBetween(first, tx.Date.Time)
		if idx < 0 || idx >= n {
			continue
		}
		if tx.IsIncome() {
			income[idx] = income[idx].Add(tx.Amount)
		} else {
			expenses[idx] = expenses[idx].Add(tx.Amount.Abs())
		}
	}

	for i := range buckets {
		buckets[i].Income = income[i]
		buckets[i].Expenses = expenses[i]
		buckets[i].SavingsRate = SavingsRate(income[i], expenses[i])
	}
	return buckets
}

// monthsBetween counts whole calendar months from the month of a to the
// month of b. Negative when b precedes a.
func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// RunningBalance folds the monthly series into a cumulative net balance
// carried forward month over month.
func RunningBalance(series []MonthBucket) []BalancePoint {
	points := make([]BalancePoint, len(series))
	balance := decimal.Zero
	for i, b := range series {
		balance = balance.Add(b.Income).Sub(b.Expenses)
		points[i] = BalancePoint{Month: b.Month, Balance: balance}
	}
	return points
}

// TopExpenses returns the n largest expense transactions by magnitude,
// descending. The sort is stable so equal amounts keep their input order.
func TopExpenses(txs []models.Transaction, n int) []models.Transaction {
	expenses := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.IsIncome() {
			expenses = append(expenses, tx)
		}
	}
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Amount.Abs().Cmp(expenses[j].Amount.Abs()) > 0
	})
	if len(expenses) > n {
		expenses = expenses[:n]
	}
	return expenses
}

// GroupByDate partitions transactions by display date, preserving input
// order within each group, then sorts groups most recent first. The label
// is rendered in a fixed calendar (UTC) so the grouping key is stable for
// every viewer.
func GroupByDate(txs []models.Transaction) []DateGroup {
	index := make(map[string]int)
	groups := make([]DateGroup, 0)
	for _, tx := range txs {
		key := tx.Date.String()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DateGroup{
				Label: tx.Date.Format("Monday, January 2, 2006"),
				Date:  tx.Date,
			})
		}
		groups[i].Transactions = append(groups[i].Transactions, tx)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date.After(groups[j].Date.Time)
	})
	return groups
}

// DailySummaries sums income and expense magnitudes per calendar day,
// in chronological order. Used by the calendar view.
func DailySummaries(txs []models.Transaction) []DailySummary {
	index := make(map[string]int)
	days := make([]DailySummary, 0)
	for _, tx := range txs {
		key := tx.Date.String()
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, DailySummary{Date: key, Income: decimal.Zero, Expense: decimal.Zero})
		}
		if tx.IsIncome() {
			days[i].Income = days[i].Income.Add(tx.Amount)
		} else {
			days[i].Expense = days[i].Expense.Add(tx.Amount.Abs())
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}
