package cashflows

import (
	"errors"
	"strconv"
	"time"

	"github.com/Yubo0826/portfolio-backend/internal/application/cashflows"
	"github.com/Yubo0826/portfolio-backend/internal/pkg/response"
	"github.com/Yubo0826/portfolio-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *cashflows.Service
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, cashflows.ErrValidation):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, cashflows.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, cashflows.ErrAccountInUse):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	default:
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
}

func parseUintQuery(c *fiber.Ctx, key string) *uint {
	raw := c.Query(key)
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

// ---- accounts ----

// GET /api/cash-accounts?uid=
func (h *Handlers) ListAccounts(c *fiber.Ctx) error {
	uid := c.Query("uid")
	if uid == "" {
		return response.BadRequest(c, "Missing required field: uid")
	}
	accounts, total, err := h.Service.ListAccounts(c.Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Cash accounts fetched successfully", fiber.Map{
		"accounts":      accounts,
		"total_balance": total,
	}, nil)
}

type accountRequest struct {
	UID         string   `json:"uid"`
	Name        string   `json:"name"`
	Balance     *float64 `json:"balance"`
	Currency    *string  `json:"currency"`
	Description *string  `json:"description"`
}

// POST /api/cash-accounts
func (h *Handlers) CreateAccount(c *fiber.Ctx) error {
	var req accountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	in := cashflows.AccountInput{
		UID:         req.UID,
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Balance != nil {
		in.Balance = *req.Balance
	}
	if req.Currency != nil {
		in.Currency = *req.Currency
	}
	account, err := h.Service.CreateAccount(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return response.SuccessCreated(c, "Cash account created successfully", fiber.Map{"account": account}, nil)
}

// GET /api/cash-accounts/:id?uid=
func (h *Handlers) GetAccount(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid account id")
	}
	uid := c.Query("uid")
	if uid == "" {
		return response.BadRequest(c, "Missing required field: uid")
	}
	detail, err := h.Service.GetAccount(c.Context(), uint(id), uid)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Cash account fetched successfully", detail, nil)
}

// PUT /api/cash-accounts/:id
func (h *Handlers) UpdateAccount(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid account id")
	}
	var req accountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	var name *string
	if req.Name != "" {
		name = &req.Name
	}
	account, err := h.Service.UpdateAccount(c.Context(), uint(id), req.UID, name, req.Currency, req.Balance, req.Description)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Cash account updated successfully", fiber.Map{"account": account}, nil)
}

// DELETE /api/cash-accounts/:id?uid=
func (h *Handlers) DeleteAccount(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid account id")
	}
	uid := c.Query("uid")
	if uid == "" {
		return response.BadRequest(c, "Missing required field: uid")
	}
	if err := h.Service.DeleteAccount(c.Context(), uint(id), uid); err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Cash account deleted successfully", fiber.Map{"deleted": id}, nil)
}

// ---- flows ----

// GET /api/cash-flows?uid=&portfolio_id=&account_id=&flow_type=&start_date=&end_date=&page=&limit=
func (h *Handlers) ListFlows(c *fiber.Ctx) error {
	uid := c.Query("uid")
	if uid == "" {
		return response.BadRequest(c, "Missing required field: uid")
	}
	f := cashflows.FlowFilter{
		UID:         uid,
		PortfolioID: parseUintQuery(c, "portfolio_id"),
		AccountID:   parseUintQuery(c, "account_id"),
		FlowType:    c.Query("flow_type"),
		Page:        c.QueryInt("page", 1),
		Limit:       c.QueryInt("limit", 50),
	}
	if f.FlowType != "" && !validation.IsValidFlowType(f.FlowType) {
		return response.BadRequest(c, "Invalid flow_type")
	}
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return response.BadRequest(c, "Invalid start_date, expected YYYY-MM-DD")
		}
		f.StartDate = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return response.BadRequest(c, "Invalid end_date, expected YYYY-MM-DD")
		}
		f.EndDate = &t
	}

	flows, pagination, err := h.Service.ListFlows(c.Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Cash flows fetched successfully", fiber.Map{"flows": flows}, pagination)
}

type flowRequest struct {
	UID         string    `json:"uid"`
	AccountID   uint      `json:"account_id"`
	PortfolioID *uint     `json:"portfolio_id"`
	Amount      float64   `json:"amount"`
	FlowType    string    `json:"flow_type"`
	Description *string   `json:"description"`
	Date        time.Time `json:"date"`
}

// POST /api/cash-flows
func (h *Handlers) CreateFlow(c *fiber.Ctx) error {
	var req flowRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	flow, err := h.Service.CreateFlow(c.Context(), cashflows.FlowInput{
		UID:         req.UID,
		AccountID:   req.AccountID,
		PortfolioID: req.PortfolioID,
		Amount:      req.Amount,
		FlowType:    req.FlowType,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		return respondError(c, err)
	}
	return response.SuccessCreated(c, "Cash flow created successfully", fiber.Map{"flow": flow}, nil)
}

// GET /api/cash-flows/stats?uid=&portfolio_id=
func (h *Handlers) Stats(c *fiber.Ctx) error {
	uid := c.Query("uid")
	if uid == "" {
		return response.BadRequest(c, "Missing required field: uid")
	}
	stats, err := h.Service.FlowStats(c.Context(), uid, parseUintQuery(c, "portfolio_id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Cash flow stats fetched successfully", stats, nil)
}

type backfillRequest struct {
	UID         string `json:"uid"`
	PortfolioID uint   `json:"portfolio_id"`
	AccountID   uint   `json:"account_id"`
}

// POST /api/cash-flows/dividends books already-synced dividends as flows.
func (h *Handlers) BackfillDividends(c *fiber.Ctx) error {
	var req backfillRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UID == "" || req.PortfolioID == 0 {
		return response.BadRequest(c, "Missing required fields: uid, portfolio_id")
	}
	flows, err := h.Service.BackfillDividends(c.Context(), req.UID, req.PortfolioID, req.AccountID)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Dividends booked successfully", fiber.Map{
		"created": len(flows),
		"flows":   flows,
	}, nil)
}
