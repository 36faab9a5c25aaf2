package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$1,650.00", FormatCurrency(1650, "USD"))
	assert.Equal(t, "S$12.50", FormatCurrency(12.5, "SGD"))
	assert.Equal(t, "₹1,234,567", FormatCurrency(1234567.4, "INR"))
	assert.Equal(t, "-S$3.10", FormatCurrency(-3.1, "SGD"))
	assert.Equal(t, "$0.00", FormatCurrency(0, "USD"))
}

func TestFormatPnL(t *testing.T) {
	assert.Equal(t, "+$150.00", FormatPnL(150, "USD"))
	assert.Equal(t, "-₹20.50", FormatPnL(-20.5, "INR"))
	assert.Equal(t, "+S$0.00", FormatPnL(0, "SGD"))
}

func TestFormatPercentage(t *testing.T) {
	assert.Equal(t, "+10.0%", FormatPercentage(10))
	assert.Equal(t, "-2.4%", FormatPercentage(-2.44))
	assert.Equal(t, "+0.0%", FormatPercentage(0))
}

func TestCurrencySymbol_FallsBackToCode(t *testing.T) {
	assert.Equal(t, "S$", CurrencySymbol("SGD"))
	assert.Equal(t, "XYZ", CurrencySymbol("XYZ"))
}
