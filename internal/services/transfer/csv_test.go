package transfer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

type memHoldings struct {
	interfaces.HoldingStore
	rows     []models.Holding
	replaced bool
	err      error
}

func (m *memHoldings) GetHoldings(context.Context, models.Category) ([]models.Holding, error) {
	return m.rows, m.err
}

func (m *memHoldings) ReplaceHoldings(_ context.Context, rows []models.Holding) (int, int, error) {
	if m.err != nil {
		return 0, 0, m.err
	}
	deleted := len(m.rows)
	m.rows = rows
	m.replaced = true
	return deleted, len(rows), nil
}

const sample = `category,name,symbol,quantity,buy_price,buy_date,currency,broker,notes
US_STOCK,Apple,AAPL,10,150,2024-01-15,USD,IBKR,"core, long"
sg_mf,Tiger Fund,TIGER,"1,000",1.5,,SGD,,
`

func TestReadHoldings(t *testing.T) {
	rows, err := ReadHoldings(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, models.CategoryUSStock, rows[0].Category)
	assert.Equal(t, 10.0, rows[0].Quantity)
	assert.Equal(t, 150.0, rows[0].BuyPrice)
	assert.Equal(t, "2024-01-15", rows[0].BuyDate)
	assert.Equal(t, "core, long", rows[0].Notes)

	assert.Equal(t, models.CategorySGMF, rows[1].Category)
	assert.Equal(t, 1000.0, rows[1].Quantity)
	assert.Empty(t, rows[1].Broker)
}

func TestReadHoldings_OptionalColumnsAbsent(t *testing.T) {
	in := "symbol,name,category,quantity,buy_price,currency\nAAPL,Apple,US_STOCK,1,100,usd\n"
	rows, err := ReadHoldings(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "AAPL", rows[0].Symbol)
	assert.Equal(t, "USD", rows[0].Currency)
	assert.Empty(t, rows[0].BuyDate)
	assert.Empty(t, rows[0].Notes)
}

func TestReadHoldings_MissingRequiredColumns(t *testing.T) {
	_, err := ReadHoldings(strings.NewReader("name,symbol,quantity\nApple,AAPL,1\n"))
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
	assert.Contains(t, err.Error(), "buy_price, category, currency")
}

func TestReadHoldings_BadNumberReportsLine(t *testing.T) {
	in := "category,name,symbol,quantity,buy_price,currency\n" +
		"US_STOCK,Apple,AAPL,1,100,USD\n" +
		"US_STOCK,Microsoft,MSFT,ten,300,USD\n"
	_, err := ReadHoldings(strings.NewReader(in))
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "quantity", ve.Field)
	assert.Contains(t, ve.Message, "line 3")
}

func TestReadHoldings_InvalidRowReportsLine(t *testing.T) {
	in := "category,name,symbol,quantity,buy_price,currency\nBONDS,Treasury,T,1,100,USD\n"
	_, err := ReadHoldings(strings.NewReader(in))
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "category", ve.Field)
	assert.Contains(t, ve.Message, "line 2")
}

func TestReadHoldings_Empty(t *testing.T) {
	_, err := ReadHoldings(strings.NewReader(""))
	assert.True(t, models.IsValidation(err))
}

func TestWriteHoldings_RoundTripsThroughReader(t *testing.T) {
	rows, err := ReadHoldings(strings.NewReader(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteHoldings(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, strings.Join(Columns, ","), lines[0])
	assert.Equal(t, `US_STOCK,Apple,AAPL,10,150,2024-01-15,USD,IBKR,"core, long"`, lines[1])
	assert.Equal(t, "SG_MF,Tiger Fund,TIGER,1000,1.5,,SGD,,", lines[2])

	again, err := ReadHoldings(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, again)
}

func TestService_ImportReplaces(t *testing.T) {
	store := &memHoldings{rows: make([]models.Holding, 3)}
	svc := NewService(store, common.NewSilentLogger())

	res, err := svc.Import(context.Background(), strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, &Result{Deleted: 3, Inserted: 2}, res)
	assert.Len(t, store.rows, 2)
}

func TestService_ImportRejectsBeforeReplacing(t *testing.T) {
	store := &memHoldings{rows: make([]models.Holding, 3)}
	svc := NewService(store, common.NewSilentLogger())

	_, err := svc.Import(context.Background(), strings.NewReader("name\nApple\n"))
	assert.True(t, models.IsValidation(err))
	assert.False(t, store.replaced)
	assert.Len(t, store.rows, 3)
}

func TestService_Export(t *testing.T) {
	store := &memHoldings{rows: []models.Holding{
		{Category: models.CategoryPreciousMetal, Name: "Gold", Symbol: "GOLD", Quantity: 10, BuyPrice: 95.5, Currency: "SGD"},
	}}
	var buf bytes.Buffer
	n, err := NewService(store, common.NewSilentLogger()).Export(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), "PRECIOUS_METAL,Gold,GOLD,10,95.5,,SGD,,")
}

func TestService_ExportStoreError(t *testing.T) {
	store := &memHoldings{err: errors.New("db locked")}
	_, err := NewService(store, common.NewSilentLogger()).Export(context.Background(), &bytes.Buffer{})
	assert.ErrorContains(t, err, "db locked")
}
