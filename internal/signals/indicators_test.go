package signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/mystock/internal/models"
)

// generateBars builds newest-first bars from closes given newest first
func generateBars(closes []float64) []models.EODBar {
	bars := make([]models.EODBar, len(closes))
	day := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.EODBar{
			Date:  day.AddDate(0, 0, -i),
			Open:  c,
			High:  c * 1.01,
			Low:   c * 0.99,
			Close: c,
		}
	}
	return bars
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSMA(t *testing.T) {
	tests := []struct {
		name     string
		bars     []models.EODBar
		period   int
		expected float64
	}{
		{
			name:     "simple 3-day SMA",
			bars:     generateBars([]float64{10, 20, 30}),
			period:   3,
			expected: 20.0,
		},
		{
			name:     "uses newest bars only",
			bars:     generateBars([]float64{10, 20, 30, 40, 50}),
			period:   2,
			expected: 15.0,
		},
		{
			name:     "insufficient data",
			bars:     generateBars([]float64{10, 20}),
			period:   5,
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SMA(tt.bars, tt.period), 0.01)
		})
	}
}

func TestClassifyTrend(t *testing.T) {
	// SMA20 = (5*102 + 15*100) / 20 = 100.5; SMA5 = 102 is 1.49% above.
	up := append(repeat(102, 5), repeat(100, 15)...)
	down := append(repeat(98, 5), repeat(100, 15)...)
	flat := append(repeat(100.5, 5), repeat(100, 15)...)

	tests := []struct {
		name   string
		closes []float64
		want   models.Trend
	}{
		{"SMA5 above band", up, models.TrendUp},
		{"SMA5 below band", down, models.TrendDown},
		{"within band", flat, models.TrendSideways},
		{"fewer than 20 points", repeat(100, 19), models.TrendSideways},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTrend(generateBars(tt.closes)))
		})
	}
}

func TestClassifyTrend_TwoPercentAbove(t *testing.T) {
	// Last five closes lift SMA5 exactly 2% above SMA20.
	closes := append(repeat(102.6846, 5), repeat(100, 15)...)
	bars := generateBars(closes)

	sma5 := SMA(bars, 5)
	sma20 := SMA(bars, 20)
	assert.InDelta(t, 1.02, sma5/sma20, 0.001)
	assert.Equal(t, models.TrendUp, ClassifyTrend(bars))
}

func navs(values ...float64) []models.NAVPoint {
	out := make([]models.NAVPoint, len(values))
	for i, v := range values {
		out[i] = models.NAVPoint{NAV: v}
	}
	return out
}

func TestNAVTrend(t *testing.T) {
	series := func(newest float64) []models.NAVPoint {
		vals := append([]float64{newest}, repeat(100, 30)...)
		return navs(vals...)
	}

	assert.Equal(t, models.TrendUp, NAVTrend(series(101.5)))
	assert.Equal(t, models.TrendDown, NAVTrend(series(98.5)))
	assert.Equal(t, models.TrendSideways, NAVTrend(series(100.5)))
	assert.Equal(t, models.TrendSideways, NAVTrend(navs(repeat(100, 30)...)), "exactly 30 points is not enough")
}

func TestExtremes(t *testing.T) {
	bars := []models.EODBar{
		{High: 110, Low: 100},
		{High: 130, Low: 90},
		{High: 120, Low: 95},
	}
	high, low := Extremes(bars)
	assert.Equal(t, 130.0, high)
	assert.Equal(t, 90.0, low)

	high, low = Extremes(nil)
	assert.Zero(t, high)
	assert.Zero(t, low)
}

func TestNAVExtremes(t *testing.T) {
	high, low := NAVExtremes(navs(12, 15, 9, 11))
	assert.Equal(t, 15.0, high)
	assert.Equal(t, 9.0, low)
}

func TestPctHelpers(t *testing.T) {
	assert.InDelta(t, 10.0, PctChange(150, 165), 1e-9)
	assert.Zero(t, PctChange(0, 10))
	assert.InDelta(t, 25.0, PctBelow(200, 150), 1e-9)
	assert.Equal(t, 12.35, Round2(12.345000001))
}
