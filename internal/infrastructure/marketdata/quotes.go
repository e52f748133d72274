package marketdata

import (
	"context"
	"errors"
	"time"
)

// ErrNoQuote is returned when the upstream has no usable data for a symbol.
var ErrNoQuote = errors.New("no quote for symbol")

// DividendEvent is one distribution reported by the upstream chart API.
type DividendEvent struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"` // per share
}

// SearchResult is one symbol lookup hit.
type SearchResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Type     string `json:"type"`
}

// Quotes is the price feed the rest of the system depends on. Implementations
// wrap an upstream market-data provider.
type Quotes interface {
	// LatestPrice returns the most recent trade or close price.
	LatestPrice(ctx context.Context, symbol string) (float64, error)
	// Dividends returns distribution events between from and to.
	Dividends(ctx context.Context, symbol string, from, to time.Time) ([]DividendEvent, error)
	// Search resolves a free-text query to candidate symbols.
	Search(ctx context.Context, query string) ([]SearchResult, error)
}
