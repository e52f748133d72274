package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const tiingoBase = "https://api.tiingo.com"

// TiingoClient proxies the two Tiingo endpoints the frontend uses: daily
// close prices for a date and symbol search.
type TiingoClient struct {
	APIKey  string
	BaseURL string // override for tests
	Client  *http.Client
}

func NewTiingoClient(apiKey string) *TiingoClient {
	return &TiingoClient{
		APIKey: apiKey,
		Client: &http.Client{Timeout: 8 * time.Second},
	}
}

func (t *TiingoClient) base() string {
	if t.BaseURL != "" {
		return t.BaseURL
	}
	return tiingoBase
}

func (t *TiingoClient) httpClient() *http.Client {
	if t.Client != nil {
		return t.Client
	}
	return http.DefaultClient
}

// DailyPrice is one row from the Tiingo daily price endpoint, passed through
// to the caller as-is.
type DailyPrice struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume"`
	AdjClose float64 `json:"adjClose"`
}

func (t *TiingoClient) get(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := t.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tiingo: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// PricesOn returns the daily prices for symbol on the given date (YYYY-MM-DD).
func (t *TiingoClient) PricesOn(ctx context.Context, symbol, date string) ([]DailyPrice, error) {
	rawURL := fmt.Sprintf("%s/tiingo/daily/%s/prices?startDate=%s&endDate=%s&token=%s",
		t.base(), url.PathEscape(symbol), url.QueryEscape(date), url.QueryEscape(date), url.QueryEscape(t.APIKey))
	var out []DailyPrice
	if err := t.get(ctx, rawURL, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TiingoSymbol is one search hit from the Tiingo utilities search endpoint.
type TiingoSymbol struct {
	Ticker      string `json:"ticker"`
	Name        string `json:"name"`
	AssetType   string `json:"assetType"`
	CountryCode string `json:"countryCode"`
}

// SearchSymbols resolves a free-text query against Tiingo's symbol catalog.
func (t *TiingoClient) SearchSymbols(ctx context.Context, query string) ([]TiingoSymbol, error) {
	rawURL := fmt.Sprintf("%s/tiingo/utilities/search?query=%s&token=%s",
		t.base(), url.QueryEscape(query), url.QueryEscape(t.APIKey))
	var out []TiingoSymbol
	if err := t.get(ctx, rawURL, &out); err != nil {
		return nil, err
	}
	return out, nil
}
