package dividends

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Yubo0826/portfolio-backend/internal/domain"
	"github.com/Yubo0826/portfolio-backend/internal/infrastructure/marketdata"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeQuotes serves canned dividend events per symbol.
type fakeQuotes struct {
	events map[string][]marketdata.DividendEvent
	fail   map[string]bool
}

func (f *fakeQuotes) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	return 0, marketdata.ErrNoQuote
}

func (f *fakeQuotes) Dividends(ctx context.Context, symbol string, from, to time.Time) ([]marketdata.DividendEvent, error) {
	if f.fail[symbol] {
		return nil, errors.New("upstream down")
	}
	return f.events[symbol], nil
}

func (f *fakeQuotes) Search(ctx context.Context, query string) ([]marketdata.SearchResult, error) {
	return nil, nil
}

func setupDividends(t *testing.T, quotes marketdata.Quotes) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Transaction{}, &domain.Dividend{}))
	return &Service{DB: db, Quotes: quotes}, db
}

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func seedTx(t *testing.T, db *gorm.DB, symbol, txType string, shares float64, day string) {
	t.Helper()
	require.NoError(t, db.Create(&domain.Transaction{
		UID: "u1", PortfolioID: 1, Symbol: symbol, Name: symbol + " Inc.",
		Shares: shares, Price: 100, TransactionType: txType, TransactionDate: date(day),
	}).Error)
}

func TestSync_CreditsSharesHeldOnEventDate(t *testing.T) {
	quotes := &fakeQuotes{events: map[string][]marketdata.DividendEvent{
		"AAPL": {
			{Date: date("2026-02-10"), Amount: 0.25},
			{Date: date("2026-04-10"), Amount: 0.25},
		},
	}}
	svc, db := setupDividends(t, quotes)
	seedTx(t, db, "AAPL", domain.TxBuy, 10, "2026-01-05")
	seedTx(t, db, "AAPL", domain.TxSell, 4, "2026-03-01")

	require.NoError(t, svc.Sync(context.Background(), "u1", 1))

	rows, err := svc.List(context.Background(), "u1", 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Ordered date DESC: April first.
	assert.InDelta(t, 6.0, rows[0].Shares, 1e-9)
	assert.InDelta(t, 10.0, rows[1].Shares, 1e-9)
}

func TestSync_SkipsEventsBeforeFirstPurchase(t *testing.T) {
	quotes := &fakeQuotes{events: map[string][]marketdata.DividendEvent{
		"AAPL": {{Date: date("2026-01-01"), Amount: 0.25}},
	}}
	svc, db := setupDividends(t, quotes)
	seedTx(t, db, "AAPL", domain.TxBuy, 10, "2026-01-05")

	require.NoError(t, svc.Sync(context.Background(), "u1", 1))

	rows, err := svc.List(context.Background(), "u1", 1)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSync_IsIdempotent(t *testing.T) {
	quotes := &fakeQuotes{events: map[string][]marketdata.DividendEvent{
		"AAPL": {{Date: date("2026-02-10"), Amount: 0.25}},
	}}
	svc, db := setupDividends(t, quotes)
	seedTx(t, db, "AAPL", domain.TxBuy, 10, "2026-01-05")

	require.NoError(t, svc.Sync(context.Background(), "u1", 1))
	require.NoError(t, svc.Sync(context.Background(), "u1", 1))

	var count int64
	require.NoError(t, db.Model(&domain.Dividend{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSync_OneFailingSymbolDoesNotStopOthers(t *testing.T) {
	quotes := &fakeQuotes{
		events: map[string][]marketdata.DividendEvent{
			"MSFT": {{Date: date("2026-02-10"), Amount: 0.75}},
		},
		fail: map[string]bool{"AAPL": true},
	}
	svc, db := setupDividends(t, quotes)
	seedTx(t, db, "AAPL", domain.TxBuy, 10, "2026-01-05")
	seedTx(t, db, "MSFT", domain.TxBuy, 5, "2026-01-05")

	require.NoError(t, svc.Sync(context.Background(), "u1", 1))

	rows, err := svc.List(context.Background(), "u1", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "MSFT", rows[0].Symbol)
}
