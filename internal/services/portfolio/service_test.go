package portfolio

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

type mockResolver struct {
	mu      sync.Mutex
	records map[string]*models.PriceRecord
	calls   int
}

func (m *mockResolver) Resolve(_ context.Context, id string) (*models.PriceRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	rec, ok := m.records[id]
	return rec, ok
}

type mockResolverSet map[models.Category]*mockResolver

func (m mockResolverSet) For(c models.Category) (interfaces.PriceResolver, bool) {
	r, ok := m[c]
	if !ok {
		return nil, false
	}
	return r, true
}

type mockConverter struct {
	rates map[string]float64
}

func (m *mockConverter) GetRate(_ context.Context, from, to string) (float64, bool) {
	if from == to {
		return 1, true
	}
	r, ok := m.rates[from+to]
	return r, ok
}

func (m *mockConverter) Convert(ctx context.Context, amount float64, from, to string) (float64, bool) {
	r, ok := m.GetRate(ctx, from, to)
	if !ok {
		return amount, false
	}
	return amount * r, true
}

type mockHoldingStore struct {
	interfaces.HoldingStore
	holdings []models.Holding
	err      error
}

func (m *mockHoldingStore) GetHoldings(_ context.Context, _ models.Category) ([]models.Holding, error) {
	return m.holdings, m.err
}

func aapl() models.Holding {
	return models.Holding{ID: 1, Category: models.CategoryUSStock, Name: "Apple", Symbol: "AAPL", Quantity: 10, BuyPrice: 150, Currency: "USD"}
}

func TestEnrich_SingleHoldingScenario(t *testing.T) {
	equity := &mockResolver{records: map[string]*models.PriceRecord{
		"AAPL": {Symbol: "AAPL", CurrentPrice: 165, AllTimeHigh: 200, AllTimeLow: 50, Trend: models.TrendUp, Source: models.PriceSourceLive},
	}}
	svc := NewService(nil, mockResolverSet{models.CategoryUSStock: equity}, &mockConverter{rates: map[string]float64{"USDSGD": 1.35}}, "SGD", common.NewSilentLogger())

	summary := svc.Enrich(context.Background(), []models.Holding{aapl()})
	require.Len(t, summary.Holdings, 1)

	e := summary.Holdings[0]
	assert.Equal(t, 1500.0, e.TotalInvested)
	assert.Equal(t, 1650.0, e.CurrentValue)
	assert.Equal(t, 150.0, e.PnL)
	assert.Equal(t, 10.0, e.PnLPct)
	assert.Equal(t, models.TrendUp, e.Trend)
	assert.Equal(t, models.PriceSourceLive, e.PriceSource)
	assert.True(t, e.Converted)
	assert.InDelta(t, 2227.5, e.ValueInReporting, 1e-9)

	require.Len(t, summary.Categories, 1)
	cat := summary.Categories[0]
	assert.Equal(t, models.CategoryUSStock, cat.Category)
	assert.Equal(t, "USD", cat.Currency)
	assert.Equal(t, 1, cat.Count)
	assert.Equal(t, 100.0, cat.SharePct)
	assert.Equal(t, 10.0, cat.PnLPct)

	assert.InDelta(t, 2025.0, summary.TotalInvested, 1e-9)
	assert.InDelta(t, 2227.5, summary.TotalValue, 1e-9)
	assert.InDelta(t, 10.0, summary.TotalPnLPct, 1e-9)
}

func TestEnrich_UnresolvedUsesBuyPrice(t *testing.T) {
	sgmf := models.Holding{Category: models.CategorySGMF, Name: "Tiger Fund", Symbol: "TIGER", Quantity: 100, BuyPrice: 1.5, Currency: "SGD"}
	svc := NewService(nil, mockResolverSet{}, &mockConverter{}, "SGD", common.NewSilentLogger())

	summary := svc.Enrich(context.Background(), []models.Holding{sgmf})
	e := summary.Holdings[0]

	assert.Equal(t, 1.5, e.CurrentPrice)
	assert.Zero(t, e.PnL)
	assert.Zero(t, e.PnLPct)
	assert.Equal(t, models.PriceSourceBuyPrice, e.PriceSource)
	assert.Equal(t, models.TrendSideways, e.Trend)
	assert.True(t, e.Converted)
}

func TestEnrich_MissingRateLeavesUnconverted(t *testing.T) {
	svc := NewService(nil, mockResolverSet{}, &mockConverter{}, "SGD", common.NewSilentLogger())

	summary := svc.Enrich(context.Background(), []models.Holding{aapl()})
	e := summary.Holdings[0]

	assert.False(t, e.Converted)
	assert.Equal(t, 1500.0, e.ValueInReporting)
	assert.Equal(t, 1, summary.Unconverted)
}

func TestEnrich_CategoryShares(t *testing.T) {
	holdings := []models.Holding{
		aapl(),
		{Category: models.CategorySGStock, Name: "DBS", Symbol: "D05.SI", Quantity: 100, BuyPrice: 20.25, Currency: "SGD"},
		{Category: models.CategorySGStock, Name: "OCBC", Symbol: "O39.SI", Quantity: 0, BuyPrice: 10, Currency: "SGD"},
	}
	svc := NewService(nil, mockResolverSet{}, &mockConverter{rates: map[string]float64{"USDSGD": 1.35}}, "SGD", common.NewSilentLogger())

	summary := svc.Enrich(context.Background(), holdings)
	require.Len(t, summary.Categories, 2)

	// Categories follow the canonical order: SG_STOCK before US_STOCK.
	assert.Equal(t, models.CategorySGStock, summary.Categories[0].Category)
	assert.Equal(t, 2, summary.Categories[0].Count)
	assert.InDelta(t, 50.0, summary.Categories[0].SharePct, 1e-9)
	assert.InDelta(t, 50.0, summary.Categories[1].SharePct, 1e-9)

	var zero models.EnrichedHolding
	for _, e := range summary.Holdings {
		if e.Symbol == "O39.SI" {
			zero = e
		}
	}
	assert.Zero(t, zero.PnLPct, "zero invested has zero pnl percent")
}

func TestEnrich_DeduplicatesResolves(t *testing.T) {
	equity := &mockResolver{records: map[string]*models.PriceRecord{"AAPL": {CurrentPrice: 165}}}
	svc := NewService(nil, mockResolverSet{models.CategoryUSStock: equity}, &mockConverter{}, "USD", common.NewSilentLogger())

	summary := svc.Enrich(context.Background(), []models.Holding{aapl(), aapl()})
	assert.Len(t, summary.Holdings, 2)
	assert.Equal(t, 1, equity.calls)
}

func TestEnrich_Empty(t *testing.T) {
	svc := NewService(nil, mockResolverSet{}, &mockConverter{}, "", common.NewSilentLogger())
	summary := svc.Enrich(context.Background(), nil)

	assert.Equal(t, "SGD", summary.ReportingCurrency)
	assert.Empty(t, summary.Holdings)
	assert.Zero(t, summary.TotalPnLPct)
}

func TestGetPortfolio(t *testing.T) {
	store := &mockHoldingStore{holdings: []models.Holding{aapl()}}
	svc := NewService(store, mockResolverSet{}, &mockConverter{}, "USD", common.NewSilentLogger())

	summary, err := svc.GetPortfolio(context.Background())
	require.NoError(t, err)
	assert.Len(t, summary.Holdings, 1)

	store.err = errors.New("db closed")
	_, err = svc.GetPortfolio(context.Background())
	require.Error(t, err)
}
