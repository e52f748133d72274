package dividends

import (
	"errors"
	"strconv"

	"github.com/Yubo0826/portfolio-backend/internal/application/dividends"
	"github.com/Yubo0826/portfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *dividends.Service
}

func scope(c *fiber.Ctx) (string, uint, bool) {
	uid := c.Query("uid")
	pid, err := strconv.ParseUint(c.Query("portfolio_id"), 10, 32)
	if uid == "" || err != nil {
		return "", 0, false
	}
	return uid, uint(pid), true
}

// GET /api/dividends?uid=&portfolio_id=
func (h *Handlers) List(c *fiber.Ctx) error {
	uid, pid, ok := scope(c)
	if !ok {
		return response.BadRequest(c, "Missing required fields: uid, portfolio_id")
	}
	rows, err := h.Service.List(c.Context(), uid, pid)
	if err != nil {
		if errors.Is(err, dividends.ErrValidation) {
			return response.BadRequest(c, err.Error())
		}
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Dividends fetched successfully", fiber.Map{"dividends": rows}, nil)
}

type syncRequest struct {
	UID         string `json:"uid"`
	PortfolioID uint   `json:"portfolio_id"`
}

// POST /api/dividends/sync pulls dividend events for every held symbol.
func (h *Handlers) Sync(c *fiber.Ctx) error {
	var req syncRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UID == "" || req.PortfolioID == 0 {
		return response.BadRequest(c, "Missing required fields: uid, portfolio_id")
	}
	if err := h.Service.Sync(c.Context(), req.UID, req.PortfolioID); err != nil {
		if errors.Is(err, dividends.ErrValidation) {
			return response.BadRequest(c, err.Error())
		}
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	rows, err := h.Service.List(c.Context(), req.UID, req.PortfolioID)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Dividends synced successfully", fiber.Map{"dividends": rows}, nil)
}
