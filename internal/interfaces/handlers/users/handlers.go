package users

import (
	"errors"

	"github.com/Yubo0826/portfolio-backend/internal/application/users"
	"github.com/Yubo0826/portfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *users.Service
}

type upsertRequest struct {
	UID         string  `json:"uid"`
	Email       string  `json:"email"`
	DisplayName *string `json:"display_name"`
}

// POST /api/users registers the caller on first sign-in; repeat calls are a
// no-op returning the stored row.
func (h *Handlers) Upsert(c *fiber.Ctx) error {
	var req upsertRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	user, created, err := h.Service.Create(c.Context(), req.UID, req.Email, req.DisplayName)
	if err != nil {
		if errors.Is(err, users.ErrValidation) {
			return response.BadRequest(c, err.Error())
		}
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	if created {
		return response.SuccessCreated(c, "User created successfully", fiber.Map{"user": user}, nil)
	}
	return response.Success(c, "User already exists", fiber.Map{"user": user}, nil)
}

// GET /api/users/settings?uid=
func (h *Handlers) GetSettings(c *fiber.Ctx) error {
	uid := c.Query("uid")
	if uid == "" {
		return response.BadRequest(c, "Missing required field: uid")
	}
	settings, err := h.Service.GetSettings(c.Context(), uid)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return response.NotFound(c, err.Error())
		}
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Settings fetched successfully", settings, nil)
}

type settingsRequest struct {
	UID            string   `json:"uid"`
	DriftThreshold *float64 `json:"drift_threshold"`
}

// PUT /api/users/settings
func (h *Handlers) UpdateSettings(c *fiber.Ctx) error {
	var req settingsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UID == "" {
		return response.BadRequest(c, "Missing required field: uid")
	}
	user, err := h.Service.UpdateSettings(c.Context(), req.UID, users.Settings{DriftThreshold: req.DriftThreshold})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrValidation):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, users.ErrNotFound):
			return response.NotFound(c, err.Error())
		default:
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}
	return response.Success(c, "Settings updated successfully", fiber.Map{"user": user}, nil)
}
