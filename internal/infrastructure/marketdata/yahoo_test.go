package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
}

func TestLatestPrice_UsesRegularMarketPrice(t *testing.T) {
	srv := chartServer(t, `{"chart":{"result":[{"meta":{"regularMarketPrice":123.45,"chartPreviousClose":120}}]}}`)
	defer srv.Close()

	y := &YahooClient{ChartBase: srv.URL}
	price, err := y.LatestPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 123.45, price, 1e-9)
}

func TestLatestPrice_FallsBackToPreviousClose(t *testing.T) {
	srv := chartServer(t, `{"chart":{"result":[{"meta":{"regularMarketPrice":0,"chartPreviousClose":120.5}}]}}`)
	defer srv.Close()

	y := &YahooClient{ChartBase: srv.URL}
	price, err := y.LatestPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 120.5, price, 1e-9)
}

func TestLatestPrice_EmptyResultIsNoQuote(t *testing.T) {
	srv := chartServer(t, `{"chart":{"result":[]}}`)
	defer srv.Close()

	y := &YahooClient{ChartBase: srv.URL}
	_, err := y.LatestPrice(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNoQuote)
}

func TestLatestPrice_UpstreamErrorSurfaces(t *testing.T) {
	srv := chartServer(t, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	defer srv.Close()

	y := &YahooClient{ChartBase: srv.URL}
	_, err := y.LatestPrice(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestDividends_ParsesEventMap(t *testing.T) {
	srv := chartServer(t, `{"chart":{"result":[{"meta":{"regularMarketPrice":1},"events":{"dividends":{"1767312000":{"amount":0.25,"date":1767312000}}}}]}}`)
	defer srv.Close()

	y := &YahooClient{ChartBase: srv.URL}
	events, err := y.Dividends(context.Background(), "AAPL", time.Unix(0, 0), time.Now())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.InDelta(t, 0.25, events[0].Amount, 1e-9)
	assert.Equal(t, int64(1767312000), events[0].Date.Unix())
}

func TestSearch_FiltersNonYahooQuotes(t *testing.T) {
	srv := chartServer(t, `{"quotes":[
		{"symbol":"AAPL","shortname":"Apple","longname":"Apple Inc.","exchange":"NMS","quoteType":"EQUITY","isYahooFinance":true},
		{"symbol":"SOMECOIN","isYahooFinance":false},
		{"symbol":"","isYahooFinance":true}
	]}`)
	defer srv.Close()

	y := &YahooClient{SearchBase: srv.URL}
	results, err := y.Search(context.Background(), "apple")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "AAPL", results[0].Symbol)
	assert.Equal(t, "Apple Inc.", results[0].Name)
}

func TestTiingoPricesOn_PassesRowsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/tiingo/daily/AAPL/prices")
		assert.Equal(t, "2026-03-02", r.URL.Query().Get("startDate"))
		assert.Equal(t, "test-key", r.URL.Query().Get("token"))
		fmt.Fprint(w, `[{"date":"2026-03-02T00:00:00.000Z","open":100,"high":105,"low":99,"close":104,"volume":1000,"adjClose":104}]`)
	}))
	defer srv.Close()

	tc := &TiingoClient{APIKey: "test-key", BaseURL: srv.URL}
	prices, err := tc.PricesOn(context.Background(), "AAPL", "2026-03-02")
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.InDelta(t, 104.0, prices[0].Close, 1e-9)
}

func TestTiingoSearch_ResolvesSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "apple", r.URL.Query().Get("query"))
		fmt.Fprint(w, `[{"ticker":"AAPL","name":"Apple Inc.","assetType":"Stock","countryCode":"US"}]`)
	}))
	defer srv.Close()

	tc := &TiingoClient{APIKey: "test-key", BaseURL: srv.URL}
	symbols, err := tc.SearchSymbols(context.Background(), "apple")
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "AAPL", symbols[0].Ticker)
}

func TestTiingo_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tc := &TiingoClient{APIKey: "test-key", BaseURL: srv.URL}
	_, err := tc.PricesOn(context.Background(), "AAPL", "2026-03-02")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
