package models

import "time"

// DefaultIncomeCategories and DefaultExpenseCategories are the built-in
// category sets merged with a user's custom categories at display time.
var (
	DefaultIncomeCategories = []string{
		"Salary", "Freelance", "Investment", "Business", "Other Income",
	}
	DefaultExpenseCategories = []string{
		"Food & Dining", "Housing", "Transportation", "Utilities",
		"Health & Fitness", "Entertainment", "Shopping", "Education",
		"Other Expense",
	}
)

// DefaultCategories returns the built-in set for a transaction type.
func DefaultCategories(txType string) []string {
	if txType == TypeIncome {
		return DefaultIncomeCategories
	}
	return DefaultExpenseCategories
}

// Category is a user-defined category, scoped to one user and one
// transaction type (income or expense).
type Category struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"type" db:"type"`
	UserID    int       `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
