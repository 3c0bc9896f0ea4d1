package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-bot/internal/api/dto"
	"github.com/spec-kit/helpdesk-bot/internal/auth"
	apperrors "github.com/spec-kit/helpdesk-bot/pkg/util"
)

// AuthHandler issues operator tokens for the admin API.
type AuthHandler struct {
	tokens       *auth.TokenManager
	passwordHash string
}

// NewAuthHandler constructs handler.
func NewAuthHandler(tokens *auth.TokenManager, passwordHash string) *AuthHandler {
	return &AuthHandler{tokens: tokens, passwordHash: passwordHash}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Password == "" {
		return apperrors.NewValidationError("password required", nil)
	}
	if h.passwordHash == "" {
		return apperrors.NewUnauthorized("admin access not configured")
	}
	if err := auth.ComparePassword(h.passwordHash, req.Password); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := h.tokens.GenerateToken("operator")
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}})
}
