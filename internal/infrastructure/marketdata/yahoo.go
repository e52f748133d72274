package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	yahooChartBase  = "https://query2.finance.yahoo.com/v8/finance/chart"
	yahooSearchBase = "https://query2.finance.yahoo.com/v1/finance/search"
)

// YahooClient fetches prices, dividend events and symbol search results from
// the public Yahoo Finance chart and search endpoints.
type YahooClient struct {
	ChartBase  string // override for tests
	SearchBase string
	Client     *http.Client
}

func NewYahooClient() *YahooClient {
	return &YahooClient{
		Client: &http.Client{Timeout: 8 * time.Second},
	}
}

func (y *YahooClient) chartBase() string {
	if y.ChartBase != "" {
		return y.ChartBase
	}
	return yahooChartBase
}

func (y *YahooClient) searchBase() string {
	if y.SearchBase != "" {
		return y.SearchBase
	}
	return yahooSearchBase
}

func (y *YahooClient) httpClient() *http.Client {
	if y.Client != nil {
		return y.Client
	}
	return http.DefaultClient
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *YahooClient) getChart(ctx context.Context, rawURL string) (*chartResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "portfolio-backend/1.0")

	resp, err := y.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo chart: status %d", resp.StatusCode)
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart: %s", parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, ErrNoQuote
	}
	return &parsed, nil
}

func (y *YahooClient) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return 0, ErrNoQuote
	}
	rawURL := fmt.Sprintf("%s/%s?interval=1d&range=1d", y.chartBase(), url.PathEscape(symbol))
	parsed, err := y.getChart(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	meta := parsed.Chart.Result[0].Meta
	price := meta.RegularMarketPrice
	if price == 0 {
		price = meta.PreviousClose
	}
	if price == 0 {
		return 0, ErrNoQuote
	}
	return price, nil
}

func (y *YahooClient) Dividends(ctx context.Context, symbol string, from, to time.Time) ([]DividendEvent, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, ErrNoQuote
	}
	rawURL := fmt.Sprintf("%s/%s?interval=1d&period1=%d&period2=%d&events=div",
		y.chartBase(), url.PathEscape(symbol), from.Unix(), to.Unix())
	parsed, err := y.getChart(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	raw := parsed.Chart.Result[0].Events.Dividends
	out := make([]DividendEvent, 0, len(raw))
	for _, ev := range raw {
		out = append(out, DividendEvent{
			Date:   time.Unix(ev.Date, 0).UTC(),
			Amount: ev.Amount,
		})
	}
	return out, nil
}

// RawChart fetches the chart payload for symbol unparsed, for callers that
// proxy it straight through. rangeSpec and interval use Yahoo's own forms
// ("1mo", "1d", ...).
func (y *YahooClient) RawChart(ctx context.Context, symbol, rangeSpec, interval string) (json.RawMessage, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, ErrNoQuote
	}
	if rangeSpec == "" {
		rangeSpec = "1mo"
	}
	if interval == "" {
		interval = "1d"
	}
	rawURL := fmt.Sprintf("%s/%s?interval=%s&range=%s",
		y.chartBase(), url.PathEscape(symbol), url.QueryEscape(interval), url.QueryEscape(rangeSpec))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "portfolio-backend/1.0")

	resp, err := y.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo chart: status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

type searchResponse struct {
	Quotes []struct {
		Symbol         string `json:"symbol"`
		ShortName      string `json:"shortname"`
		LongName       string `json:"longname"`
		Exchange       string `json:"exchange"`
		QuoteType      string `json:"quoteType"`
		IsYahooFinance bool   `json:"isYahooFinance"`
	} `json:"quotes"`
}

func (y *YahooClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	rawURL := fmt.Sprintf("%s?q=%s", y.searchBase(), url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "portfolio-backend/1.0")

	resp, err := y.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo search: status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]SearchResult, 0, len(parsed.Quotes))
	for _, q := range parsed.Quotes {
		// Only real Yahoo quotes with a symbol.
		if !q.IsYahooFinance || q.Symbol == "" {
			continue
		}
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		out = append(out, SearchResult{
			Symbol:   q.Symbol,
			Name:     name,
			Exchange: q.Exchange,
			Type:     q.QuoteType,
		})
	}
	return out, nil
}
