package price

import (
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

// Resolvers selects the price resolver for a holding category
type Resolvers struct {
	Equity *EquityResolver
	Fund   *FundResolver
	Metal  *MetalResolver
	Manual *ManualNAVResolver
}

// For returns the resolver for category; ok is false when the category has none
func (r *Resolvers) For(category models.Category) (interfaces.PriceResolver, bool) {
	var res interfaces.PriceResolver
	switch category {
	case models.CategoryIndianStock, models.CategorySGStock, models.CategoryUSStock:
		if r.Equity != nil {
			res = r.Equity
		}
	case models.CategoryIndianMF:
		if r.Fund != nil {
			res = r.Fund
		}
	case models.CategoryPreciousMetal:
		if r.Metal != nil {
			res = r.Metal
		}
	case models.CategorySGMF:
		if r.Manual != nil {
			res = r.Manual
		}
	}
	return res, res != nil
}
