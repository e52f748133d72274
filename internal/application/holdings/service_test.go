package holdings

import (
	"context"
	"testing"
	"time"

	"github.com/Yubo0826/portfolio-backend/internal/domain"
	"github.com/Yubo0826/portfolio-backend/internal/infrastructure/marketdata"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubQuotes struct {
	prices map[string]float64
}

func (s *stubQuotes) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	price, ok := s.prices[symbol]
	if !ok {
		return 0, marketdata.ErrNoQuote
	}
	return price, nil
}

func (s *stubQuotes) Dividends(ctx context.Context, symbol string, from, to time.Time) ([]marketdata.DividendEvent, error) {
	return nil, nil
}

func (s *stubQuotes) Search(ctx context.Context, query string) ([]marketdata.SearchResult, error) {
	return nil, nil
}

func setupHoldings(t *testing.T, quotes marketdata.Quotes) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Holding{}))
	return &Service{DB: db, Quotes: quotes}, db
}

func seedHolding(t *testing.T, db *gorm.DB, uid string, portfolioID uint, symbol string) {
	t.Helper()
	require.NoError(t, db.Create(&domain.Holding{
		UID: uid, PortfolioID: portfolioID, Symbol: symbol, TotalShares: 10, AvgCost: 100,
	}).Error)
}

func TestView_ScopesByPortfolio(t *testing.T) {
	svc, db := setupHoldings(t, &stubQuotes{})
	seedHolding(t, db, "u1", 1, "AAPL")
	seedHolding(t, db, "u1", 2, "MSFT")
	seedHolding(t, db, "u2", 1, "VTI")

	all, err := svc.View(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pid := uint(2)
	scoped, err := svc.View(context.Background(), "u1", &pid)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "MSFT", scoped[0].Symbol)
}

func TestRefreshPrices_StoresLatest(t *testing.T) {
	svc, db := setupHoldings(t, &stubQuotes{prices: map[string]float64{"AAPL": 150.25}})
	seedHolding(t, db, "u1", 1, "AAPL")

	updated, err := svc.RefreshPrices(context.Background(), "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	var h domain.Holding
	require.NoError(t, db.Where("symbol = ?", "AAPL").First(&h).Error)
	require.NotNil(t, h.CurrentPrice)
	assert.InDelta(t, 150.25, *h.CurrentPrice, 1e-9)
}

func TestRefreshPrices_BadTickerDoesNotBlockOthers(t *testing.T) {
	svc, db := setupHoldings(t, &stubQuotes{prices: map[string]float64{"MSFT": 400}})
	seedHolding(t, db, "u1", 1, "DELISTED")
	seedHolding(t, db, "u1", 1, "MSFT")

	updated, err := svc.RefreshPrices(context.Background(), "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	var stale domain.Holding
	require.NoError(t, db.Where("symbol = ?", "DELISTED").First(&stale).Error)
	assert.Nil(t, stale.CurrentPrice)
}
