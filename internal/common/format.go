package common

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// currencySymbols overrides go-money graphemes for the portfolio's home markets.
var currencySymbols = map[string]string{
	"INR": "₹",
	"SGD": "S$",
	"USD": "$",
}

// CurrencySymbol returns the display symbol for a currency code.
func CurrencySymbol(code string) string {
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	if c := money.GetCurrency(code); c != nil && c.Grapheme != "" {
		return c.Grapheme
	}
	return code
}

func formatAbs(value float64, code string, fraction int) string {
	minor := decimal.NewFromFloat(math.Abs(value)).Shift(int32(fraction)).Round(0).IntPart()
	f := money.NewFormatter(fraction, ".", ",", CurrencySymbol(code), "$1")
	return f.Format(minor)
}

// FormatCurrency formats a value with the currency symbol and thousands separators.
// Values of a million or more drop the fractional part.
func FormatCurrency(value float64, code string) string {
	fraction := 2
	if math.Abs(value) >= 1_000_000 {
		fraction = 0
	}
	s := formatAbs(value, code, fraction)
	if value < 0 {
		return "-" + s
	}
	return s
}

// FormatPnL formats a profit or loss with an explicit sign.
func FormatPnL(value float64, code string) string {
	sign := "+"
	if value < 0 {
		sign = "-"
	}
	return sign + formatAbs(value, code, 2)
}

// FormatPercentage formats a percentage with one decimal and an explicit sign.
func FormatPercentage(value float64) string {
	if value >= 0 {
		return fmt.Sprintf("+%.1f%%", value)
	}
	return fmt.Sprintf("%.1f%%", value)
}
