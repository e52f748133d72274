package drift

import (
	"strconv"

	"github.com/Yubo0826/portfolio-backend/internal/application/drift"
	"github.com/Yubo0826/portfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *drift.Service
}

// GET /api/drift/check?uid=&portfolio_id=&threshold=
func (h *Handlers) Check(c *fiber.Ctx) error {
	uid := c.Query("uid")
	pid, err := strconv.ParseUint(c.Query("portfolio_id"), 10, 32)
	if uid == "" || err != nil {
		return response.BadRequest(c, "Missing required fields: uid, portfolio_id")
	}
	threshold := drift.DefaultThreshold
	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return response.BadRequest(c, "Invalid threshold")
		}
		threshold = v
	}

	reports, err := h.Service.Check(c.Context(), uint(pid), uid, threshold)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Drift check completed", fiber.Map{
		"threshold": threshold,
		"drifts":    reports,
		"has_drift": len(reports) > 0,
	}, nil)
}
