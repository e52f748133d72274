package allocations

import (
	"errors"
	"strconv"

	"github.com/Yubo0826/portfolio-backend/internal/application/allocations"
	"github.com/Yubo0826/portfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *allocations.Service
}

func scope(c *fiber.Ctx) (string, uint, bool) {
	uid := c.Query("uid")
	pid, err := strconv.ParseUint(c.Query("portfolio_id"), 10, 32)
	if uid == "" || err != nil {
		return "", 0, false
	}
	return uid, uint(pid), true
}

// GET /api/allocations?uid=&portfolio_id=
func (h *Handlers) List(c *fiber.Ctx) error {
	uid, pid, ok := scope(c)
	if !ok {
		return response.BadRequest(c, "Missing required fields: uid, portfolio_id")
	}
	rows, err := h.Service.List(c.Context(), uid, pid)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Allocations fetched successfully", fiber.Map{"assets": rows}, nil)
}

type saveRequest struct {
	UID         string              `json:"uid"`
	PortfolioID uint                `json:"portfolio_id"`
	Assets      []allocations.Asset `json:"assets"`
}

// POST /api/allocations replaces the portfolio's target set.
func (h *Handlers) Save(c *fiber.Ctx) error {
	var req saveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UID == "" || req.PortfolioID == 0 {
		return response.BadRequest(c, "Missing required fields: uid, portfolio_id")
	}
	rows, err := h.Service.Replace(c.Context(), req.UID, req.PortfolioID, req.Assets)
	if err != nil {
		if errors.Is(err, allocations.ErrValidation) {
			return response.BadRequest(c, err.Error())
		}
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Allocations saved successfully", fiber.Map{"assets": rows}, nil)
}
