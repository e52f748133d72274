package portfolios

import (
	"errors"
	"strconv"

	"github.com/Yubo0826/portfolio-backend/internal/application/portfolios"
	"github.com/Yubo0826/portfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *portfolios.Service
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, portfolios.ErrValidation):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, portfolios.ErrNotFound):
		return response.NotFound(c, err.Error())
	default:
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
}

// GET /api/portfolios?uid=
func (h *Handlers) List(c *fiber.Ctx) error {
	uid := c.Query("uid")
	if uid == "" {
		return response.BadRequest(c, "Missing required field: uid")
	}
	rows, err := h.Service.List(c.Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Portfolios fetched successfully", fiber.Map{"portfolios": rows}, nil)
}

type createRequest struct {
	UID              string   `json:"uid"`
	Name             string   `json:"name"`
	Description      *string  `json:"description"`
	DriftThreshold   *float64 `json:"drift_threshold"`
	EnableEmailAlert bool     `json:"enable_email_alert"`
}

// POST /api/portfolios
func (h *Handlers) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	p, err := h.Service.Create(c.Context(), portfolios.CreateInput{
		UID:              req.UID,
		Name:             req.Name,
		Description:      req.Description,
		DriftThreshold:   req.DriftThreshold,
		EnableEmailAlert: req.EnableEmailAlert,
	})
	if err != nil {
		return respondError(c, err)
	}
	return response.SuccessCreated(c, "Portfolio created successfully", fiber.Map{"portfolio": p}, nil)
}

// PUT /api/portfolios/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid portfolio id")
	}
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	p, err := h.Service.Update(c.Context(), portfolios.UpdateInput{
		ID:               uint(id),
		Name:             req.Name,
		Description:      req.Description,
		DriftThreshold:   req.DriftThreshold,
		EnableEmailAlert: req.EnableEmailAlert,
	})
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Portfolio updated successfully", fiber.Map{"portfolio": p}, nil)
}

type deleteRequest struct {
	UID string `json:"uid"`
	IDs []uint `json:"ids"`
}

// DELETE /api/portfolios
func (h *Handlers) Delete(c *fiber.Ctx) error {
	var req deleteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.Service.Delete(c.Context(), req.UID, req.IDs); err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Portfolios deleted successfully", fiber.Map{"deleted": req.IDs}, nil)
}
