// Package monitor watches equity holdings for large daily moves and raises alerts
package monitor

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
	"github.com/bobmcallan/mystock/internal/services/price"
)

// DefaultThreshold is the daily move, in percent, that raises an alert
const DefaultThreshold = 5.0

// Store is the slice of the persistent store the monitor reads and refreshes
type Store interface {
	interfaces.HoldingStore
	interfaces.PriceCacheStore
}

// Monitor checks every equity holding on a fixed interval. A move of at
// least the threshold raises a warning; twice the threshold is critical.
type Monitor struct {
	store     Store
	history   interfaces.HistoryClient
	alerts    *AlertStore
	sinks     []interfaces.AlertSink
	interval  time.Duration
	threshold float64
	workers   int
	logger    *common.Logger
	now       func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastRun time.Time
}

// NewMonitor creates a monitor; call Start to begin ticking
func NewMonitor(store Store, history interfaces.HistoryClient, alerts *AlertStore, cfg common.MonitorConfig, logger *common.Logger) *Monitor {
	threshold := cfg.AlertThreshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Monitor{
		store:     store,
		history:   history,
		alerts:    alerts,
		interval:  cfg.Interval(),
		threshold: threshold,
		workers:   cfg.BatchConcurrency,
		logger:    logger,
		now:       time.Now,
	}
}

// AddSink registers a destination for newly raised alerts
func (m *Monitor) AddSink(sink interfaces.AlertSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, sink)
}

// Alerts returns the monitor's alert store
func (m *Monitor) Alerts() *AlertStore {
	return m.alerts
}

// LastRun returns when the last check finished; zero before the first
func (m *Monitor) LastRun() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRun
}

// Start runs a check immediately and then once per interval until Stop
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	m.safeGo("monitor", func() { m.loop(ctx) })

	m.logger.Info().
		Dur("interval", m.interval).
		Float64("threshold_pct", m.threshold).
		Msg("Price monitor started")
}

// Stop cancels the loop and waits for an in-flight check to finish
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	m.wg.Wait()
	m.logger.Info().Msg("Price monitor stopped")
}

func (m *Monitor) safeGo(name string, fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic in monitor goroutine")
			}
		}()
		fn()
	}()
}

func (m *Monitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if _, err := m.Check(ctx); err != nil && ctx.Err() == nil {
			m.logger.Warn().Err(err).Msg("Monitor check failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

type watched struct {
	name   string
	symbol string
}

// Check runs one pass over the equity holdings and returns the alerts it
// raised. A failure for one symbol is logged and skipped.
func (m *Monitor) Check(ctx context.Context) ([]models.Alert, error) {
	holdings, err := m.store.GetHoldings(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	var symbols []string
	names := make(map[string]string)
	for _, h := range holdings {
		if !h.Category.IsEquity() {
			continue
		}
		if _, ok := names[h.Symbol]; !ok {
			names[h.Symbol] = h.Name
			symbols = append(symbols, h.Symbol)
		}
	}

	raised := make(map[string]models.Alert)
	var mu sync.Mutex

	price.Batch(ctx, symbols, m.workers, func(ctx context.Context, symbol string) {
		alert, ok := m.checkSymbol(ctx, watched{name: names[symbol], symbol: symbol})
		if !ok {
			return
		}
		mu.Lock()
		raised[symbol] = alert
		mu.Unlock()
	})

	// keep holding order so alerts are stable across runs
	var out []models.Alert
	for _, s := range symbols {
		if a, ok := raised[s]; ok {
			out = append(out, a)
		}
	}

	for _, a := range out {
		m.alerts.Add(a)
		m.publish(ctx, a)
	}

	m.mu.Lock()
	m.lastRun = m.now()
	m.mu.Unlock()

	m.logger.Debug().
		Int("symbols", len(symbols)).
		Int("alerts", len(out)).
		Msg("Monitor check complete")

	return out, nil
}

func (m *Monitor) checkSymbol(ctx context.Context, w watched) (models.Alert, bool) {
	hist, err := m.history.GetHistory(ctx, w.symbol, models.Range5Day)
	if err != nil {
		m.logger.Warn().Str("symbol", w.symbol).Err(err).Msg("Monitor history fetch failed")
		return models.Alert{}, false
	}
	if hist == nil || len(hist.Bars) < 2 {
		return models.Alert{}, false
	}

	current := hist.Bars[0].Close
	previous := hist.Bars[1].Close

	m.refreshCache(ctx, w.symbol, current, hist.Currency)

	if previous == 0 {
		return models.Alert{}, false
	}
	change := (current - previous) / previous * 100
	if math.Abs(change) < m.threshold {
		return models.Alert{}, false
	}

	severity := models.SeverityWarning
	if math.Abs(change) >= 2*m.threshold {
		severity = models.SeverityCritical
	}
	direction := "up"
	if change < 0 {
		direction = "down"
	}
	name := w.name
	if name == "" {
		name = w.symbol
	}

	return models.Alert{
		Timestamp:   m.now(),
		Type:        models.AlertTypePriceMove,
		Severity:    severity,
		Symbol:      w.symbol,
		Title:       fmt.Sprintf("%s %s %.1f%%", name, direction, math.Abs(change)),
		Description: fmt.Sprintf("%s: %.2f -> %.2f (%+.1f%%)", w.symbol, previous, current, change),
	}, true
}

// refreshCache writes the latest close into the price cache, keeping
// whatever extremes and trend the resolver stored earlier
func (m *Monitor) refreshCache(ctx context.Context, symbol string, current float64, currency string) {
	rec, err := m.store.GetCachedPrice(ctx, symbol, math.MaxInt64)
	if err != nil {
		m.logger.Warn().Str("symbol", symbol).Err(err).Msg("Monitor cache read failed")
	}
	if rec == nil {
		rec = &models.PriceRecord{Symbol: symbol, Trend: models.TrendSideways}
	}
	rec.CurrentPrice = current
	rec.FetchedAt = m.now()
	if currency != "" {
		rec.Currency = currency
	}
	if err := m.store.UpsertPriceCache(ctx, rec); err != nil {
		m.logger.Warn().Str("symbol", symbol).Err(err).Msg("Monitor cache write failed")
	}
}

func (m *Monitor) publish(ctx context.Context, alert models.Alert) {
	m.mu.Lock()
	sinks := make([]interfaces.AlertSink, len(m.sinks))
	copy(sinks, m.sinks)
	m.mu.Unlock()

	for _, s := range sinks {
		if err := s.Publish(ctx, alert); err != nil {
			m.logger.Warn().Str("symbol", alert.Symbol).Err(err).Msg("Alert publish failed")
		}
	}
}
