// Package signals provides price indicator calculations.
// Bar and NAV series are ordered newest first.
package signals

import (
	"math"

	"github.com/bobmcallan/mystock/internal/models"
)

// Trend thresholds
const (
	TrendShortPeriod = 5
	TrendLongPeriod  = 20
	TrendBand        = 0.01 // SMA5 must clear SMA20 by 1%

	NAVTrendLookback = 30
	NAVTrendPct      = 1.0
)

// SMA calculates Simple Moving Average of closes for the given period
func SMA(bars []models.EODBar, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += bars[i].Close
	}
	return sum / float64(period)
}

// ClassifyTrend compares the 5-period and 20-period SMAs of closes.
// Fewer than 20 bars is SIDEWAYS.
func ClassifyTrend(bars []models.EODBar) models.Trend {
	if len(bars) < TrendLongPeriod {
		return models.TrendSideways
	}

	short := SMA(bars, TrendShortPeriod)
	long := SMA(bars, TrendLongPeriod)

	switch {
	case short > long*(1+TrendBand):
		return models.TrendUp
	case short < long*(1-TrendBand):
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}

// NAVTrend compares the newest NAV with the one 30 points back; it needs
// more than 30 points, otherwise SIDEWAYS
func NAVTrend(navs []models.NAVPoint) models.Trend {
	if len(navs) <= NAVTrendLookback {
		return models.TrendSideways
	}

	past := navs[NAVTrendLookback].NAV
	if past == 0 {
		return models.TrendSideways
	}
	pct := (navs[0].NAV - past) / past * 100

	switch {
	case pct > NAVTrendPct:
		return models.TrendUp
	case pct < -NAVTrendPct:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}

// Extremes returns the highest High and lowest Low across all bars
func Extremes(bars []models.EODBar) (high, low float64) {
	if len(bars) == 0 {
		return 0, 0
	}

	high = bars[0].High
	low = bars[0].Low
	for _, b := range bars[1:] {
		high = math.Max(high, b.High)
		low = math.Min(low, b.Low)
	}
	return high, low
}

// NAVExtremes returns the max and min NAV
func NAVExtremes(navs []models.NAVPoint) (high, low float64) {
	if len(navs) == 0 {
		return 0, 0
	}

	high, low = navs[0].NAV, navs[0].NAV
	for _, p := range navs[1:] {
		high = math.Max(high, p.NAV)
		low = math.Min(low, p.NAV)
	}
	return high, low
}

// PctChange returns the percentage change from prev to cur, 0 when prev is 0
func PctChange(prev, cur float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

// PctBelow returns how far price sits below high, in percent
func PctBelow(high, price float64) float64 {
	if high == 0 {
		return 0
	}
	return (high - price) / high * 100
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
