package market

import (
	"errors"
	"time"

	"github.com/Yubo0826/portfolio-backend/internal/infrastructure/marketdata"
	"github.com/Yubo0826/portfolio-backend/internal/pkg/response"
	"github.com/Yubo0826/portfolio-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// Handlers proxies the upstream market-data providers so the frontend never
// talks to them directly (or needs the Tiingo key).
type Handlers struct {
	Quotes marketdata.Quotes
	Yahoo  *marketdata.YahooClient
	Tiingo *marketdata.TiingoClient
}

// GET /api/market/quote?symbol=
func (h *Handlers) Quote(c *fiber.Ctx) error {
	symbol := c.Query("symbol")
	if !validation.IsValidSymbol(symbol) {
		return response.BadRequest(c, "Invalid or missing symbol")
	}
	price, err := h.Quotes.LatestPrice(c.Context(), symbol)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoQuote) {
			return response.NotFound(c, "No quote for symbol")
		}
		return response.Error(c, "Upstream market data error", fiber.StatusBadGateway, nil)
	}
	return response.Success(c, "Quote fetched successfully", fiber.Map{
		"symbol": symbol,
		"price":  price,
	}, nil)
}

// GET /api/market/search?q=
func (h *Handlers) Search(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return response.BadRequest(c, "Missing required field: q")
	}
	results, err := h.Quotes.Search(c.Context(), q)
	if err != nil {
		return response.Error(c, "Upstream market data error", fiber.StatusBadGateway, nil)
	}
	return response.Success(c, "Search completed successfully", fiber.Map{"results": results}, nil)
}

// GET /api/market/chart?symbol=&range=&interval= passes the upstream chart
// payload through untouched; the frontend does its own parsing.
func (h *Handlers) Chart(c *fiber.Ctx) error {
	symbol := c.Query("symbol")
	if !validation.IsValidSymbol(symbol) {
		return response.BadRequest(c, "Invalid or missing symbol")
	}
	raw, err := h.Yahoo.RawChart(c.Context(), symbol, c.Query("range"), c.Query("interval"))
	if err != nil {
		if errors.Is(err, marketdata.ErrNoQuote) {
			return response.NotFound(c, "No chart for symbol")
		}
		return response.Error(c, "Upstream market data error", fiber.StatusBadGateway, nil)
	}
	c.Set("Content-Type", "application/json")
	return c.Send(raw)
}

// GET /api/market/dividends?symbol=&from=&to=
func (h *Handlers) Dividends(c *fiber.Ctx) error {
	symbol := c.Query("symbol")
	if !validation.IsValidSymbol(symbol) {
		return response.BadRequest(c, "Invalid or missing symbol")
	}
	to := time.Now()
	from := to.AddDate(-1, 0, 0)
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return response.BadRequest(c, "Invalid from, expected YYYY-MM-DD")
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return response.BadRequest(c, "Invalid to, expected YYYY-MM-DD")
		}
		to = t
	}
	events, err := h.Quotes.Dividends(c.Context(), symbol, from, to)
	if err != nil {
		return response.Error(c, "Upstream market data error", fiber.StatusBadGateway, nil)
	}
	return response.Success(c, "Dividends fetched successfully", fiber.Map{
		"symbol": symbol,
		"events": events,
	}, nil)
}

// GET /api/market/tiingo/prices/:symbol?date=
func (h *Handlers) TiingoPrices(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	if !validation.IsValidSymbol(symbol) {
		return response.BadRequest(c, "Invalid symbol")
	}
	prices, err := h.Tiingo.PricesOn(c.Context(), symbol, c.Query("date"))
	if err != nil {
		return response.Error(c, "Upstream market data error", fiber.StatusBadGateway, nil)
	}
	return response.Success(c, "Prices fetched successfully", fiber.Map{"prices": prices}, nil)
}

// GET /api/market/tiingo/search?q=
func (h *Handlers) TiingoSearch(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return response.BadRequest(c, "Missing required field: q")
	}
	symbols, err := h.Tiingo.SearchSymbols(c.Context(), q)
	if err != nil {
		return response.Error(c, "Upstream market data error", fiber.StatusBadGateway, nil)
	}
	return response.Success(c, "Search completed successfully", fiber.Map{"symbols": symbols}, nil)
}
