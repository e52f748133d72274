package transactions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/Yubo0826/portfolio-backend/internal/application/ledger"
	"github.com/Yubo0826/portfolio-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTxTest(t *testing.T) (*fiber.App, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Transaction{}, &domain.Holding{}, &domain.CashAccount{}, &domain.CashFlow{}))

	h := &Handlers{Service: ledger.New(db)}
	app := fiber.New()
	app.Get("/api/transactions", h.List)
	app.Post("/api/transactions", h.Create)
	app.Put("/api/transactions/:id", h.Update)
	app.Delete("/api/transactions", h.Delete)
	return app, db
}

func postJSON(t *testing.T, app *fiber.App, method, path string, body map[string]interface{}) (int, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	return resp.StatusCode, decoded
}

func buyBody(shares, price float64) map[string]interface{} {
	return map[string]interface{}{
		"uid":              "u1",
		"portfolio_id":     1,
		"symbol":           "AAPL",
		"name":             "Apple Inc.",
		"asset_type":       "stock",
		"shares":           shares,
		"price":            price,
		"transaction_type": "buy",
		"transaction_date": "2026-01-02T00:00:00Z",
	}
}

func TestCreate_MissingFields(t *testing.T) {
	app, _ := setupTxTest(t)
	body := buyBody(10, 100)
	body["uid"] = ""
	code, _ := postJSON(t, app, "POST", "/api/transactions", body)
	assert.Equal(t, 400, code)
}

func TestCreate_BuyReturnsHoldings(t *testing.T) {
	app, db := setupTxTest(t)
	code, decoded := postJSON(t, app, "POST", "/api/transactions", buyBody(10, 100))
	require.Equal(t, 201, code)
	assert.Equal(t, "success", decoded["status"])

	data := decoded["data"].(map[string]interface{})
	holdings := data["holdings"].([]interface{})
	require.Len(t, holdings, 1)
	first := holdings[0].(map[string]interface{})
	assert.Equal(t, "AAPL", first["symbol"])
	assert.InDelta(t, 10.0, first["total_shares"], 1e-9)
	assert.InDelta(t, 100.0, first["avg_cost"], 1e-9)

	var count int64
	require.NoError(t, db.Model(&domain.Transaction{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreate_SellWithoutHoldingIs400(t *testing.T) {
	app, _ := setupTxTest(t)
	body := buyBody(5, 100)
	body["transaction_type"] = "sell"
	code, decoded := postJSON(t, app, "POST", "/api/transactions", body)
	assert.Equal(t, 400, code)
	assert.Equal(t, "error", decoded["status"])
}

func TestCreate_OversellReportsHeldShares(t *testing.T) {
	app, _ := setupTxTest(t)
	code, _ := postJSON(t, app, "POST", "/api/transactions", buyBody(5, 100))
	require.Equal(t, 201, code)

	sell := buyBody(8, 100)
	sell["transaction_type"] = "sell"
	code, decoded := postJSON(t, app, "POST", "/api/transactions", sell)
	require.Equal(t, 400, code)

	errObj := decoded["error"].(map[string]interface{})
	details := errObj["details"].(map[string]interface{})
	assert.InDelta(t, 5.0, details["held"], 1e-9)
	assert.InDelta(t, 8.0, details["requested"], 1e-9)
}

func TestList_RequiresUID(t *testing.T) {
	app, _ := setupTxTest(t)
	req := httptest.NewRequest("GET", "/api/transactions", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestList_ScopedToPortfolio(t *testing.T) {
	app, _ := setupTxTest(t)
	code, _ := postJSON(t, app, "POST", "/api/transactions", buyBody(10, 100))
	require.Equal(t, 201, code)
	other := buyBody(3, 50)
	other["portfolio_id"] = 2
	other["symbol"] = "MSFT"
	code, _ = postJSON(t, app, "POST", "/api/transactions", other)
	require.Equal(t, 201, code)

	req := httptest.NewRequest("GET", "/api/transactions?uid=u1&portfolio_id=2", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	data := decoded["data"].(map[string]interface{})
	assert.Len(t, data["transactions"], 1)
	assert.Len(t, data["holdings"], 1)
}

func TestUpdate_RewritesHolding(t *testing.T) {
	app, db := setupTxTest(t)
	code, _ := postJSON(t, app, "POST", "/api/transactions", buyBody(20, 100))
	require.Equal(t, 201, code)
	sell := buyBody(10, 120)
	sell["transaction_type"] = "sell"
	code, _ = postJSON(t, app, "POST", "/api/transactions", sell)
	require.Equal(t, 201, code)

	var sellTx domain.Transaction
	require.NoError(t, db.Where("transaction_type = ?", domain.TxSell).First(&sellTx).Error)

	edited := buyBody(4, 120)
	edited["transaction_type"] = "sell"
	code, decoded := postJSON(t, app, "PUT", fmt.Sprintf("/api/transactions/%d", sellTx.ID), edited)
	require.Equal(t, 200, code)

	data := decoded["data"].(map[string]interface{})
	holdings := data["holdings"].([]interface{})
	require.Len(t, holdings, 1)
	first := holdings[0].(map[string]interface{})
	assert.InDelta(t, 16.0, first["total_shares"], 1e-9)
	assert.InDelta(t, 100.0, first["avg_cost"], 1e-9)
}

func TestUpdate_UnknownIDIs404(t *testing.T) {
	app, _ := setupTxTest(t)
	code, _ := postJSON(t, app, "PUT", "/api/transactions/999", buyBody(1, 1))
	assert.Equal(t, 404, code)
}

func TestDelete_RemovesAndRebuilds(t *testing.T) {
	app, db := setupTxTest(t)
	code, _ := postJSON(t, app, "POST", "/api/transactions", buyBody(10, 100))
	require.Equal(t, 201, code)
	code, _ = postJSON(t, app, "POST", "/api/transactions", buyBody(10, 300))
	require.Equal(t, 201, code)

	var first domain.Transaction
	require.NoError(t, db.Order("id ASC").First(&first).Error)

	code, decoded := postJSON(t, app, "DELETE", "/api/transactions", map[string]interface{}{
		"uid":          "u1",
		"portfolio_id": 1,
		"ids":          []uint{first.ID},
	})
	require.Equal(t, 200, code)

	data := decoded["data"].(map[string]interface{})
	holdings := data["holdings"].([]interface{})
	require.Len(t, holdings, 1)
	h := holdings[0].(map[string]interface{})
	assert.InDelta(t, 10.0, h["total_shares"], 1e-9)
	assert.InDelta(t, 300.0, h["avg_cost"], 1e-9)
}

func TestDelete_EmptyIDsIs400(t *testing.T) {
	app, _ := setupTxTest(t)
	code, _ := postJSON(t, app, "DELETE", "/api/transactions", map[string]interface{}{
		"uid":          "u1",
		"portfolio_id": 1,
		"ids":          []uint{},
	})
	assert.Equal(t, 400, code)
}

func TestDelete_ForeignIDsIs404(t *testing.T) {
	app, _ := setupTxTest(t)
	code, _ := postJSON(t, app, "POST", "/api/transactions", buyBody(10, 100))
	require.Equal(t, 201, code)

	code, _ = postJSON(t, app, "DELETE", "/api/transactions", map[string]interface{}{
		"uid":          "someone-else",
		"portfolio_id": 1,
		"ids":          []uint{1},
	})
	assert.Equal(t, 404, code)
}
