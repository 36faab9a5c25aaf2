package forex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

type memForexCache struct {
	rates map[string]float64
}

func (m *memForexCache) GetCachedForex(_ context.Context, pair string, _ time.Duration) (*models.ForexRate, error) {
	r, ok := m.rates[pair]
	if !ok {
		return nil, nil
	}
	return &models.ForexRate{Pair: pair, Rate: r}, nil
}

func (m *memForexCache) UpsertForexCache(_ context.Context, pair string, rate float64) error {
	m.rates[pair] = rate
	return nil
}

type mockRates struct {
	rate  float64
	err   error
	calls int
}

func (m *mockRates) GetRate(_ context.Context, _, _ string) (float64, error) {
	m.calls++
	return m.rate, m.err
}

func newService(cache *memForexCache, primary, fallback interfaces.RateClient) *Service {
	return NewService(cache, primary, fallback, time.Hour, common.NewSilentLogger())
}

func TestGetRate_SameCurrency(t *testing.T) {
	primary := &mockRates{rate: 2}
	rate, ok := newService(&memForexCache{rates: map[string]float64{}}, primary, nil).GetRate(context.Background(), "sgd", "SGD")
	assert.True(t, ok)
	assert.Equal(t, 1.0, rate)
	assert.Zero(t, primary.calls)
}

func TestGetRate_CacheFirst(t *testing.T) {
	primary := &mockRates{rate: 2}
	cache := &memForexCache{rates: map[string]float64{"USDSGD": 1.34}}

	rate, ok := newService(cache, primary, nil).GetRate(context.Background(), "USD", "SGD")
	require.True(t, ok)
	assert.Equal(t, 1.34, rate)
	assert.Zero(t, primary.calls)
}

func TestGetRate_FallbackCached(t *testing.T) {
	cache := &memForexCache{rates: map[string]float64{}}
	primary := &mockRates{err: errors.New("frankfurter down")}
	fallback := &mockRates{rate: 0.016}

	rate, ok := newService(cache, primary, fallback).GetRate(context.Background(), "INR", "SGD")
	require.True(t, ok)
	assert.Equal(t, 0.016, rate)
	assert.Equal(t, 0.016, cache.rates["INRSGD"])
	assert.Equal(t, 1, primary.calls)
}

func TestGetRate_AllFail(t *testing.T) {
	svc := newService(&memForexCache{rates: map[string]float64{}}, &mockRates{err: errors.New("x")}, &mockRates{err: errors.New("y")})

	_, ok := svc.GetRate(context.Background(), "USD", "SGD")
	assert.False(t, ok)

	value, converted := svc.Convert(context.Background(), 1650, "USD", "SGD")
	assert.False(t, converted)
	assert.Equal(t, 1650.0, value)
}

func TestConvert(t *testing.T) {
	svc := newService(&memForexCache{rates: map[string]float64{}}, &mockRates{rate: 1.35}, nil)

	value, converted := svc.Convert(context.Background(), 100, "USD", "SGD")
	assert.True(t, converted)
	assert.InDelta(t, 135.0, value, 1e-9)
}
