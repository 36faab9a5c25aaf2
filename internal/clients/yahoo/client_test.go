package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/mystock/internal/models"
)

const chartBody = `{"chart":{"result":[{
	"meta":{"currency":"USD","symbol":"AAPL","regularMarketPrice":166},
	"timestamp":[1773100800,1773187200,1773273600],
	"indicators":{"quote":[{
		"open":[160,null,164],
		"high":[162,163,167],
		"low":[159,160,163],
		"close":[161,null,165],
		"volume":[1000,null,1200]
	}]}
}],"error":null}}`

func TestGetHistory_NewestFirstAndSkipsNulls(t *testing.T) {
	var gotUA, gotRange, gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		gotUA = r.Header.Get("User-Agent")
		gotRange = r.URL.Query().Get("range")
		gotInterval = r.URL.Query().Get("interval")
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	h, err := c.GetHistory(context.Background(), "AAPL", models.Range5Day)
	require.NoError(t, err)

	assert.NotEmpty(t, gotUA)
	assert.Equal(t, "5d", gotRange)
	assert.Equal(t, "1d", gotInterval)
	assert.Equal(t, "USD", h.Currency)
	require.Len(t, h.Bars, 2)
	assert.Equal(t, 165.0, h.Bars[0].Close)
	assert.Equal(t, 167.0, h.Bars[0].High)
	assert.Equal(t, 161.0, h.Bars[1].Close)
	assert.True(t, h.Bars[0].Date.After(h.Bars[1].Date))
}

func TestGetHistory_MaxUsesWeeklyInterval(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1wk", r.URL.Query().Get("interval"))
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).GetHistory(context.Background(), "AAPL", models.RangeMax)
	require.NoError(t, err)
}

func TestGetHistory_ChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).GetHistory(context.Background(), "NOPE", models.Range5Day)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestGetRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/USDSGD=X", r.URL.Path)
		w.Write([]byte(`{"chart":{"result":[{"meta":{"currency":"SGD"},"timestamp":[1773100800],
			"indicators":{"quote":[{"close":[1.3412]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	rate, err := NewClient(WithBaseURL(srv.URL)).GetRate(context.Background(), "USD", "SGD")
	require.NoError(t, err)
	assert.Equal(t, 1.3412, rate)
}
