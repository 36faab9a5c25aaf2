// Package forex provides cached currency conversion
package forex

import (
	"context"
	"strings"
	"time"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

// Service implements interfaces.CurrencyConverter over a TTL cache with a
// primary and a fallback rate source
type Service struct {
	store    interfaces.ForexCacheStore
	primary  interfaces.RateClient
	fallback interfaces.RateClient
	ttl      time.Duration
	logger   *common.Logger
}

// NewService creates a converter. Either source may be nil.
func NewService(store interfaces.ForexCacheStore, primary, fallback interfaces.RateClient, ttl time.Duration, logger *common.Logger) *Service {
	return &Service{
		store:    store,
		primary:  primary,
		fallback: fallback,
		ttl:      ttl,
		logger:   logger,
	}
}

// GetRate returns the rate converting one unit of from into to.
// ok is false when the cache and both sources fail.
func (s *Service) GetRate(ctx context.Context, from, to string) (float64, bool) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return 1.0, true
	}

	pair := models.ForexPair(from, to)
	cached, err := s.store.GetCachedForex(ctx, pair, s.ttl)
	if err != nil {
		s.logger.Warn().Str("pair", pair).Err(err).Msg("Forex cache read failed")
	}
	if cached != nil && cached.Rate > 0 {
		return cached.Rate, true
	}

	for _, src := range []struct {
		name   string
		client interfaces.RateClient
	}{
		{"primary", s.primary},
		{"fallback", s.fallback},
	} {
		if src.client == nil {
			continue
		}
		rate, err := src.client.GetRate(ctx, from, to)
		if err != nil || rate <= 0 {
			s.logger.Warn().Str("pair", pair).Str("source", src.name).Err(err).Msg("Forex source failed")
			continue
		}
		if err := s.store.UpsertForexCache(ctx, pair, rate); err != nil {
			s.logger.Warn().Str("pair", pair).Err(err).Msg("Failed to write forex cache")
		}
		return rate, true
	}

	return 0, false
}

// Convert multiplies amount by the from->to rate. Without a rate the amount
// is returned unconverted with converted=false.
func (s *Service) Convert(ctx context.Context, amount float64, from, to string) (float64, bool) {
	rate, ok := s.GetRate(ctx, from, to)
	if !ok {
		return amount, false
	}
	return amount * rate, true
}

var _ interfaces.CurrencyConverter = (*Service)(nil)
