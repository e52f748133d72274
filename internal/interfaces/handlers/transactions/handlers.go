package transactions

import (
	"errors"
	"strconv"
	"time"

	"github.com/Yubo0826/portfolio-backend/internal/application/ledger"
	"github.com/Yubo0826/portfolio-backend/internal/domain"
	"github.com/Yubo0826/portfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Handlers struct {
	Service *ledger.Service
}

// listState loads the caller's transactions and holdings, the combined payload
// every mutation returns so the frontend can re-render in one round trip.
func (h *Handlers) listState(c *fiber.Ctx, uid string, portfolioID *uint) (fiber.Map, error) {
	db := h.Service.DB.WithContext(c.Context())
	txQuery := db.Where("uid = ?", uid)
	holdQuery := db.Where("uid = ?", uid)
	if portfolioID != nil {
		txQuery = txQuery.Where("portfolio_id = ?", *portfolioID)
		holdQuery = holdQuery.Where("portfolio_id = ?", *portfolioID)
	}

	var txs []domain.Transaction
	if err := txQuery.Order("transaction_date DESC, id DESC").Find(&txs).Error; err != nil {
		return nil, err
	}
	var holdings []domain.Holding
	if err := holdQuery.Order("symbol ASC").Find(&holdings).Error; err != nil {
		return nil, err
	}
	return fiber.Map{"transactions": txs, "holdings": holdings}, nil
}

func parsePortfolioID(c *fiber.Ctx) *uint {
	raw := c.Query("portfolio_id")
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	id := uint(v)
	return &id
}

// statusFor maps ledger outcomes onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ledger.ErrNoHoldings), ledger.IsInsufficientShares(err):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func respondLedgerError(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code == fiber.StatusInternalServerError {
		return response.Error(c, "Internal Server Error", code, nil)
	}
	var insufficient *ledger.InsufficientSharesError
	if errors.As(err, &insufficient) {
		return response.Error(c, err.Error(), code, fiber.Map{
			"held":      insufficient.Held,
			"requested": insufficient.Requested,
		})
	}
	return response.Error(c, err.Error(), code, nil)
}

// GET /api/transactions?uid=&portfolio_id=
func (h *Handlers) List(c *fiber.Ctx) error {
	uid := c.Query("uid")
	if uid == "" {
		return response.BadRequest(c, "Missing required field: uid")
	}
	data, err := h.listState(c, uid, parsePortfolioID(c))
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Transactions fetched successfully", data, nil)
}

type recordRequest struct {
	UID             string     `json:"uid"`
	PortfolioID     uint       `json:"portfolio_id"`
	Symbol          string     `json:"symbol"`
	Name            string     `json:"name"`
	AssetType       string     `json:"asset_type"`
	Shares          float64    `json:"shares"`
	Price           float64    `json:"price"`
	Fee             float64    `json:"fee"`
	TransactionType string     `json:"transaction_type"`
	TransactionDate *time.Time `json:"transaction_date"`
	CashAccountID   *uint      `json:"cash_account_id"`
}

// POST /api/transactions
func (h *Handlers) Create(c *fiber.Ctx) error {
	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	in := ledger.RecordInput{
		UID:             req.UID,
		PortfolioID:     req.PortfolioID,
		Symbol:          req.Symbol,
		Name:            req.Name,
		AssetType:       req.AssetType,
		Shares:          req.Shares,
		Price:           req.Price,
		Fee:             req.Fee,
		TransactionType: req.TransactionType,
		CashAccountID:   req.CashAccountID,
	}
	if req.TransactionDate != nil {
		in.TransactionDate = *req.TransactionDate
	}

	if _, err := h.Service.Record(c.Context(), in); err != nil {
		return respondLedgerError(c, err)
	}

	data, err := h.listState(c, req.UID, &req.PortfolioID)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.SuccessCreated(c, "Transaction recorded successfully", data, nil)
}

// PUT /api/transactions/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid transaction id")
	}

	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	in := ledger.EditInput{
		ID:              uint(id),
		UID:             req.UID,
		PortfolioID:     req.PortfolioID,
		Symbol:          req.Symbol,
		Name:            req.Name,
		AssetType:       req.AssetType,
		Shares:          req.Shares,
		Price:           req.Price,
		Fee:             req.Fee,
		TransactionType: req.TransactionType,
	}
	if req.TransactionDate != nil {
		in.TransactionDate = *req.TransactionDate
	}

	if _, err := h.Service.Edit(c.Context(), in); err != nil {
		return respondLedgerError(c, err)
	}

	data, err := h.listState(c, req.UID, &req.PortfolioID)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Transaction updated successfully", data, nil)
}

type deleteRequest struct {
	UID         string `json:"uid"`
	PortfolioID uint   `json:"portfolio_id"`
	IDs         []uint `json:"ids"`
}

// DELETE /api/transactions
func (h *Handlers) Delete(c *fiber.Ctx) error {
	var req deleteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if len(req.IDs) == 0 {
		return response.BadRequest(c, "Invalid or empty ids array")
	}

	if err := h.Service.Delete(c.Context(), req.UID, req.PortfolioID, req.IDs); err != nil {
		if errors.Is(err, ledger.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "No transactions found to delete")
		}
		return respondLedgerError(c, err)
	}

	data, err := h.listState(c, req.UID, &req.PortfolioID)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Transactions deleted successfully", data, nil)
}
