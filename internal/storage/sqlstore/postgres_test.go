package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/models"
	tcommon "github.com/bobmcallan/mystock/test/common"
)

func TestPostgresBackend(t *testing.T) {
	pg := tcommon.StartPostgres(t)
	ctx := context.Background()

	s, err := New(common.NewSilentLogger(), DriverPostgres, pg.DSN())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	assert.Equal(t, "postgres", s.Backend())

	_, err = s.DeleteAllHoldings(ctx)
	require.NoError(t, err)

	deleted, inserted, err := s.ReplaceHoldings(ctx, []models.Holding{
		{Category: models.CategoryIndianMF, Name: "Parag Parikh Flexi Cap", Symbol: "122639", Quantity: 100, BuyPrice: 55},
		{Category: models.CategoryUSStock, Name: "Apple", Symbol: "AAPL", Quantity: 10, BuyPrice: 150},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
	assert.Equal(t, 2, inserted)

	list, err := s.GetHoldings(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.CategoryIndianMF, list[0].Category)

	require.NoError(t, s.UpsertPriceCache(ctx, &models.PriceRecord{Symbol: "AAPL", CurrentPrice: 165, Currency: "USD"}))
	rec, err := s.GetCachedPrice(ctx, "AAPL", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 165.0, rec.CurrentPrice)
}
