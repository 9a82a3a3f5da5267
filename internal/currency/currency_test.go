package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	t.Run("known currency", func(t *testing.T) {
		assert.Equal(t, "€42.50", Format(decimal.NewFromFloat(-42.5), "EUR"))
		assert.Equal(t, "£1200.00", Format(decimal.NewFromInt(1200), "GBP"))
		assert.Equal(t, "₹0.99", Format(decimal.NewFromFloat(0.99), "INR"))
	})

	t.Run("unknown currency falls back to dollar", func(t *testing.T) {
		assert.Equal(t, "$10.00", Format(decimal.NewFromInt(10), "XYZ"))
		assert.Equal(t, "$10.00", Format(decimal.NewFromInt(10), ""))
	})

	t.Run("always two decimal places", func(t *testing.T) {
		assert.Equal(t, "$5.00", Format(decimal.NewFromInt(5), "USD"))
		assert.Equal(t, "$5.10", Format(decimal.NewFromFloat(5.1), "USD"))
	})
}

func TestFormatWithSign(t *testing.T) {
	t.Run("negative amount", func(t *testing.T) {
		assert.Equal(t, "-€42.50", FormatWithSign(decimal.NewFromFloat(-42.5), "EUR"))
	})

	t.Run("positive amount", func(t *testing.T) {
		assert.Equal(t, "+$150.75", FormatWithSign(decimal.NewFromFloat(150.75), "USD"))
	})

	t.Run("zero is non-negative", func(t *testing.T) {
		assert.Equal(t, "+$0.00", FormatWithSign(decimal.Zero, "USD"))
	})
}

func TestSymbol(t *testing.T) {
	cases := map[string]string{
		"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥", "AUD": "$",
		"CAD": "$", "CHF": "Fr", "CNY": "¥", "INR": "₹", "SGD": "$",
	}
	for code, want := range cases {
		assert.Equal(t, want, Symbol(code), code)
	}
}
