// Package portfolio enriches holdings with prices and aggregates them by category
package portfolio

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
	"github.com/bobmcallan/mystock/internal/services/price"
)

var hundred = decimal.NewFromInt(100)

// Service implements interfaces.PortfolioService
type Service struct {
	store             interfaces.HoldingStore
	resolvers         interfaces.ResolverSet
	converter         interfaces.CurrencyConverter
	reportingCurrency string
	workers           int
	logger            *common.Logger
}

// NewService creates a new portfolio service
func NewService(store interfaces.HoldingStore, resolvers interfaces.ResolverSet, converter interfaces.CurrencyConverter, reportingCurrency string, logger *common.Logger) *Service {
	if reportingCurrency == "" {
		reportingCurrency = "SGD"
	}
	return &Service{
		store:             store,
		resolvers:         resolvers,
		converter:         converter,
		reportingCurrency: reportingCurrency,
		workers:           price.DefaultBatchWorkers,
		logger:            logger,
	}
}

// ReportingCurrency returns the currency portfolio totals are expressed in
func (s *Service) ReportingCurrency() string {
	return s.reportingCurrency
}

// GetPortfolio loads every holding and enriches it
func (s *Service) GetPortfolio(ctx context.Context) (*models.PortfolioSummary, error) {
	holdings, err := s.store.GetHoldings(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	return s.Enrich(ctx, holdings), nil
}

func priceKey(category models.Category, symbol string) string {
	return string(category) + "|" + symbol
}

// resolveAll resolves each distinct (category, symbol) once over the batch pool
func (s *Service) resolveAll(ctx context.Context, holdings []models.Holding) map[string]*models.PriceRecord {
	byKey := make(map[string]models.Holding, len(holdings))
	keys := make([]string, 0, len(holdings))
	for _, h := range holdings {
		k := priceKey(h.Category, h.Symbol)
		if _, ok := byKey[k]; !ok {
			byKey[k] = h
			keys = append(keys, k)
		}
	}

	prices := make(map[string]*models.PriceRecord, len(keys))
	var mu sync.Mutex

	price.Batch(ctx, keys, s.workers, func(ctx context.Context, key string) {
		h := byKey[key]
		resolver, ok := s.resolvers.For(h.Category)
		if !ok {
			return
		}
		rec, ok := resolver.Resolve(ctx, h.Symbol)
		if !ok {
			return
		}
		mu.Lock()
		prices[key] = rec
		mu.Unlock()
	})

	return prices
}

// Enrich joins holdings with resolved prices. Unresolved holdings are
// valued at their buy price; values without a forex rate stay unconverted.
func (s *Service) Enrich(ctx context.Context, holdings []models.Holding) *models.PortfolioSummary {
	summary := &models.PortfolioSummary{
		Holdings:          make([]models.EnrichedHolding, 0, len(holdings)),
		Categories:        []models.CategoryTotal{},
		ReportingCurrency: s.reportingCurrency,
	}
	if len(holdings) == 0 {
		return summary
	}

	prices := s.resolveAll(ctx, holdings)

	type rate struct {
		value decimal.Decimal
		ok    bool
	}
	rates := map[string]rate{}
	rateFor := func(currency string) rate {
		if r, ok := rates[currency]; ok {
			return r
		}
		v, ok := s.converter.GetRate(ctx, currency, s.reportingCurrency)
		r := rate{value: decimal.NewFromFloat(v), ok: ok}
		if !ok {
			r.value = decimal.NewFromInt(1)
		}
		rates[currency] = r
		return r
	}

	type catAcc struct {
		invested, value, investedRep decimal.Decimal
		count                        int
	}
	cats := map[models.Category]*catAcc{}
	var totalInvested, totalValue decimal.Decimal

	for _, h := range holdings {
		currency := h.Currency
		if currency == "" {
			currency = h.Category.Currency()
		}

		qty := decimal.NewFromFloat(h.Quantity)
		buy := decimal.NewFromFloat(h.BuyPrice)
		current := buy

		e := models.EnrichedHolding{
			Holding:           h,
			Trend:             models.TrendSideways,
			ReportingCurrency: s.reportingCurrency,
			PriceSource:       models.PriceSourceBuyPrice,
		}
		e.Currency = currency

		if rec := prices[priceKey(h.Category, h.Symbol)]; rec != nil && rec.CurrentPrice > 0 {
			current = decimal.NewFromFloat(rec.CurrentPrice)
			e.AllTimeHigh = rec.AllTimeHigh
			e.AllTimeLow = rec.AllTimeLow
			if rec.Trend != "" {
				e.Trend = rec.Trend
			}
			e.PriceSource = rec.Source
			if e.PriceSource == "" {
				e.PriceSource = models.PriceSourceLive
			}
		}

		invested := qty.Mul(buy)
		value := qty.Mul(current)
		pnl := value.Sub(invested)

		e.CurrentPrice = current.InexactFloat64()
		e.TotalInvested = invested.InexactFloat64()
		e.CurrentValue = value.InexactFloat64()
		e.PnL = pnl.InexactFloat64()
		e.PnLPct = percent(pnl, invested)

		r := rateFor(currency)
		valueRep := value.Mul(r.value)
		investedRep := invested.Mul(r.value)
		e.ValueInReporting = valueRep.InexactFloat64()
		e.InvestedInReporting = investedRep.InexactFloat64()
		e.Converted = r.ok
		if !r.ok {
			summary.Unconverted++
		}

		summary.Holdings = append(summary.Holdings, e)

		acc, ok := cats[h.Category]
		if !ok {
			acc = &catAcc{}
			cats[h.Category] = acc
		}
		acc.invested = acc.invested.Add(invested)
		acc.value = acc.value.Add(value)
		acc.investedRep = acc.investedRep.Add(investedRep)
		acc.count++

		totalInvested = totalInvested.Add(investedRep)
		totalValue = totalValue.Add(valueRep)
	}

	for _, c := range models.Categories {
		acc, ok := cats[c]
		if !ok {
			continue
		}
		pnl := acc.value.Sub(acc.invested)
		summary.Categories = append(summary.Categories, models.CategoryTotal{
			Category:      c,
			Label:         c.Label(),
			Currency:      c.Currency(),
			Count:         acc.count,
			TotalInvested: acc.invested.InexactFloat64(),
			CurrentValue:  acc.value.InexactFloat64(),
			PnL:           pnl.InexactFloat64(),
			PnLPct:        percent(pnl, acc.invested),
			SharePct:      percent(acc.investedRep, totalInvested),
		})
	}

	totalPnL := totalValue.Sub(totalInvested)
	summary.TotalInvested = totalInvested.InexactFloat64()
	summary.TotalValue = totalValue.InexactFloat64()
	summary.TotalPnL = totalPnL.InexactFloat64()
	summary.TotalPnLPct = percent(totalPnL, totalInvested)

	if summary.Unconverted > 0 {
		s.logger.Warn().Int("holdings", summary.Unconverted).Str("currency", s.reportingCurrency).Msg("Some values could not be converted")
	}

	return summary
}

// percent returns part/whole*100, or 0 when whole is zero
func percent(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(hundred).InexactFloat64()
}

var _ interfaces.PortfolioService = (*Service)(nil)
