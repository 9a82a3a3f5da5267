// Package currency maps currency codes to display symbols and formats
// signed amounts for presentation.
package currency

import "github.com/shopspring/decimal"

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"AUD": "$",
	"CAD": "$",
	"CHF": "Fr",
	"CNY": "¥",
	"INR": "₹",
	"SGD": "$",
}

// Symbol returns the display symbol for a currency code. Unknown codes
// fall back to "$".
func Symbol(code string) string {
	if s, ok := symbols[code]; ok {
		return s
	}
	return "$"
}

// Format renders symbol + absolute value fixed to two decimal places.
func Format(amount decimal.Decimal, code string) string {
	return Symbol(code) + amount.Abs().StringFixed(2)
}

// FormatWithSign renders a "+" or "-" prefix based on the sign of amount,
// then the same magnitude formatting. Zero is treated as non-negative.
func FormatWithSign(amount decimal.Decimal, code string) string {
	sign := "+"
	if amount.Sign() < 0 {
		sign = "-"
	}
	return sign + Format(amount, code)
}
