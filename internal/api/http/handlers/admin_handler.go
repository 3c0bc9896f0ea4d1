package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-bot/internal/api/dto"
	"github.com/spec-kit/helpdesk-bot/internal/domain"
	"github.com/spec-kit/helpdesk-bot/internal/service"
	apperrors "github.com/spec-kit/helpdesk-bot/pkg/util"
)

// AdminHandler exposes the administrative configuration commands.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// SetCategoryPoints PUT /config/category-points.
func (h *AdminHandler) SetCategoryPoints(c *fiber.Ctx) error {
	var req dto.SetCategoryPointsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category := domain.Category(req.Category)
	if err := h.admin.SetCategoryPoints(c.Context(), category, req.Points); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"category": category,
		"points":   req.Points,
	}})
}

// SetCategoryChannel PUT /config/category-channel.
func (h *AdminHandler) SetCategoryChannel(c *fiber.Ctx) error {
	var req dto.SetCategoryChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category := domain.Category(req.Category)
	if err := h.admin.SetCategoryChannel(c.Context(), category, req.ChannelID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"category":   category,
		"channel_id": req.ChannelID,
	}})
}

// SetLogsChannel PUT /config/logs-channel.
func (h *AdminHandler) SetLogsChannel(c *fiber.Ctx) error {
	var req dto.SetLogsChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.admin.SetLogsChannel(c.Context(), req.ChannelID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"channel_id": req.ChannelID}})
}

// AddCompletionRole POST /config/roles/completion.
func (h *AdminHandler) AddCompletionRole(c *fiber.Ctx) error {
	return h.addRole(c, h.admin.AddCompletionRole)
}

// AddCreationRole POST /config/roles/creation.
func (h *AdminHandler) AddCreationRole(c *fiber.Ctx) error {
	return h.addRole(c, h.admin.AddCreationRole)
}

func (h *AdminHandler) addRole(c *fiber.Ctx, add func(ctx context.Context, roleID string) error) error {
	var req dto.AddRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := add(c.Context(), req.RoleID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"role_id": req.RoleID}})
}
