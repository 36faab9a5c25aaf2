package price

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/models"
)

var testNow = time.Date(2026, 3, 13, 10, 0, 0, 0, time.UTC)

type memPriceCache struct {
	mu      sync.Mutex
	records map[string]models.PriceRecord
	now     time.Time
	upserts int
}

func newMemPriceCache() *memPriceCache {
	return &memPriceCache{records: map[string]models.PriceRecord{}, now: testNow}
}

func (m *memPriceCache) GetCachedPrice(_ context.Context, key string, ttl time.Duration) (*models.PriceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok || !common.IsFreshAt(rec.FetchedAt, ttl, m.now) {
		return nil, nil
	}
	return &rec, nil
}

func (m *memPriceCache) UpsertPriceCache(_ context.Context, rec *models.PriceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := *rec
	r.Source = ""
	m.records[rec.Symbol] = r
	m.upserts++
	return nil
}

type mockHistory struct {
	mu      sync.Mutex
	data    map[string]*models.PriceHistory // keyed by symbol|range
	err     error
	calls   map[string]int
	panicOn string
}

func newMockHistory() *mockHistory {
	return &mockHistory{data: map[string]*models.PriceHistory{}, calls: map[string]int{}}
}

func (m *mockHistory) set(symbol, rng string, closes ...float64) {
	bars := make([]models.EODBar, len(closes))
	for i, c := range closes {
		bars[i] = models.EODBar{Date: testNow.AddDate(0, 0, -i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	m.data[symbol+"|"+rng] = &models.PriceHistory{Symbol: symbol, Currency: "USD", Bars: bars}
}

func (m *mockHistory) GetHistory(_ context.Context, symbol, rng string) (*models.PriceHistory, error) {
	if symbol == m.panicOn {
		panic("boom")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[symbol+"|"+rng]++
	if m.err != nil {
		return nil, m.err
	}
	h, ok := m.data[symbol+"|"+rng]
	if !ok {
		return nil, errors.New("no data")
	}
	return h, nil
}

type mockFunds struct {
	history  *models.FundHistory
	results  []models.FundSearchResult
	err      error
	searches int
}

func (m *mockFunds) GetFundHistory(_ context.Context, _ string) (*models.FundHistory, error) {
	return m.history, m.err
}

func (m *mockFunds) GetLatestNAV(_ context.Context, code string) (*models.FundNAV, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.FundNAV{SchemeCode: code, NAV: m.history.NAVs[0].NAV}, nil
}

func (m *mockFunds) SearchFunds(_ context.Context, _ string) ([]models.FundSearchResult, error) {
	m.searches++
	return m.results, m.err
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

func fixedClock() time.Time { return testNow }
