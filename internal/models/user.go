package models

import (
	"strings"
	"time"
)

// SupportedCurrencies are the display currencies a user may pick in their
// preferences. Formatting for each lives in the currency package.
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "INR", "SGD"}

// Preference defaults applied at registration.
const (
	DefaultCurrency = "USD"
	DefaultTheme    = "light"
)

// IsSupportedCurrency reports whether code (case-insensitive) is one of the
// supported display currencies.
func IsSupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

// User represents an account holder and their display preferences.
type User struct {
	ID        int       `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"full_name" db:"full_name"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	Currency  string    `json:"currency" db:"currency"` // ISO-like code, USD by default
	Theme     string    `json:"theme" db:"theme"`       // "light" or "dark"
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
