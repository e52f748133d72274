package marketdata

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CachedQuotes wraps a Quotes implementation with a Redis-backed latest-price
// cache. Dividend and search calls pass through: they are either rare (daily
// sync) or user-interactive lookups that should stay fresh.
type CachedQuotes struct {
	Next Quotes
	Rdb  *redis.Client
	TTL  time.Duration
}

func NewCachedQuotes(next Quotes, rdb *redis.Client, ttl time.Duration) *CachedQuotes {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedQuotes{Next: next, Rdb: rdb, TTL: ttl}
}

func priceKey(symbol string) string {
	return "quote:latest:" + symbol
}

func (c *CachedQuotes) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	if c.Rdb != nil {
		cached, err := c.Rdb.Get(ctx, priceKey(symbol)).Result()
		if err == nil {
			if price, perr := strconv.ParseFloat(cached, 64); perr == nil {
				return price, nil
			}
		} else if err != redis.Nil {
			// Cache trouble is not a quote failure; fall through to upstream.
			log.Warn().Err(err).Str("symbol", symbol).Msg("quote cache read failed")
		}
	}

	price, err := c.Next.LatestPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}

	if c.Rdb != nil {
		if err := c.Rdb.Set(ctx, priceKey(symbol), strconv.FormatFloat(price, 'f', -1, 64), c.TTL).Err(); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("quote cache write failed")
		}
	}
	return price, nil
}

func (c *CachedQuotes) Dividends(ctx context.Context, symbol string, from, to time.Time) ([]DividendEvent, error) {
	return c.Next.Dividends(ctx, symbol, from, to)
}

func (c *CachedQuotes) Search(ctx context.Context, query string) ([]SearchResult, error) {
	return c.Next.Search(ctx, query)
}
