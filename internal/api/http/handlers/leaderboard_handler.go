package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-bot/internal/api/dto"
	"github.com/spec-kit/helpdesk-bot/internal/ledger"
	"github.com/spec-kit/helpdesk-bot/internal/service"
)

// LeaderboardHandler exposes the helper leaderboard.
type LeaderboardHandler struct {
	admin *service.AdminService
}

// NewLeaderboardHandler constructs handler.
func NewLeaderboardHandler(admin *service.AdminService) *LeaderboardHandler {
	return &LeaderboardHandler{admin: admin}
}

// Get GET /leaderboard.
func (h *LeaderboardHandler) Get(c *fiber.Ctx) error {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.admin.Leaderboard(c.Context(), limit)
	if err != nil {
		return err
	}

	items := make([]dto.LeaderboardEntry, 0, len(entries))
	for i, entry := range entries {
		items = append(items, dto.LeaderboardEntry{
			Rank:     i + 1,
			HelperID: entry.HelperID,
			Points:   entry.Points,
			Display:  ledger.FormatPoints(entry.Points),
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Reset POST /leaderboard/reset.
func (h *LeaderboardHandler) Reset(c *fiber.Ctx) error {
	if err := h.admin.ResetLeaderboard(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"reset": true}})
}
