package mfapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/mf/119551", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{"scheme_code":119551,"scheme_name":"Aditya Birla Banking & PSU Debt"},
			"data":[{"date":"13-03-2026","nav":"345.6700"},{"date":"12-03-2026","nav":"344.1000"},{"date":"11-03-2026","nav":"bad"}],
			"status":"SUCCESS"}`))
	})
	mux.HandleFunc("/mf/119551/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{"scheme_code":119551,"scheme_name":"Aditya Birla Banking & PSU Debt"},
			"data":[{"date":"13-03-2026","nav":"345.6700"}],"status":"SUCCESS"}`))
	})
	mux.HandleFunc("/mf/999/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{},"data":[],"status":"SUCCESS"}`))
	})
	mux.HandleFunc("/mf/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "banking", r.URL.Query().Get("q"))
		w.Write([]byte(`[{"schemeCode":119551,"schemeName":"Aditya Birla Banking & PSU Debt"},{"schemeCode":120437,"schemeName":"Axis Banking & PSU Debt"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetFundHistory(t *testing.T) {
	c := NewClient(WithBaseURL(newTestServer(t).URL))

	h, err := c.GetFundHistory(context.Background(), "119551")
	require.NoError(t, err)

	assert.Equal(t, "Aditya Birla Banking & PSU Debt", h.SchemeName)
	require.Len(t, h.NAVs, 2, "unparsable NAV rows are skipped")
	assert.Equal(t, 345.67, h.NAVs[0].NAV)
	assert.Equal(t, time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), h.NAVs[0].Date)
}

func TestGetLatestNAV(t *testing.T) {
	c := NewClient(WithBaseURL(newTestServer(t).URL))

	nav, err := c.GetLatestNAV(context.Background(), "119551")
	require.NoError(t, err)
	assert.Equal(t, 345.67, nav.NAV)
	assert.Equal(t, "119551", nav.SchemeCode)

	_, err = c.GetLatestNAV(context.Background(), "999")
	require.Error(t, err)
}

func TestSearchFunds(t *testing.T) {
	c := NewClient(WithBaseURL(newTestServer(t).URL))

	results, err := c.SearchFunds(context.Background(), "banking")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "120437", results[1].SchemeCode)
}

func TestGetFundHistory_NotFound(t *testing.T) {
	c := NewClient(WithBaseURL(newTestServer(t).URL))

	_, err := c.GetFundHistory(context.Background(), "000")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
