package holdings

import (
	"strconv"

	"github.com/Yubo0826/portfolio-backend/internal/application/holdings"
	"github.com/Yubo0826/portfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *holdings.Service
}

// GET /api/holdings?uid=&portfolio_id=
func (h *Handlers) List(c *fiber.Ctx) error {
	uid := c.Query("uid")
	if uid == "" {
		return response.BadRequest(c, "Missing required field: uid")
	}
	var portfolioID *uint
	if raw := c.Query("portfolio_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid portfolio_id")
		}
		id := uint(v)
		portfolioID = &id
	}

	rows, err := h.Service.View(c.Context(), uid, portfolioID)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Holdings fetched successfully", fiber.Map{"holdings": rows}, nil)
}

type refreshRequest struct {
	UID         string `json:"uid"`
	PortfolioID uint   `json:"portfolio_id"`
}

// POST /api/holdings/refresh-prices
func (h *Handlers) RefreshPrices(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UID == "" || req.PortfolioID == 0 {
		return response.BadRequest(c, "Missing required fields: uid, portfolio_id")
	}

	updated, err := h.Service.RefreshPrices(c.Context(), req.UID, req.PortfolioID)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	rows, err := h.Service.View(c.Context(), req.UID, &req.PortfolioID)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Prices refreshed successfully", fiber.Map{
		"updated":  updated,
		"holdings": rows,
	}, nil)
}
