package handler

import (
	"errors"
	"strings"
	"time"

	"scraper-admin/internal/config"
	"scraper-admin/internal/middleware"
	"scraper-admin/internal/models"
	"scraper-admin/internal/service"
	"scraper-admin/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *service.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	// Validate input
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Email and password are required", nil)
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		status := fiber.StatusUnauthorized
		if errors.Is(err, service.ErrUserInactive) {
			status = fiber.StatusForbidden
		}
		return utils.ErrorResponse(c, status, err.Error(), nil)
	}

	return utils.SuccessResponse(c, "Login successful", resp)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.authService.GetUserByID(middleware.CurrentUserID(c))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "User not found", err)
	}

	return utils.SuccessResponse(c, "User retrieved successfully", user)
}

func (h *AuthHandler) ShowLogin(c *fiber.Ctx) error {
	return c.Render("auth/login", fiber.Map{
		"Title": "Sign in",
	}, "layouts/base")
}

// WebLogin signs in from the HTML form and stores the token in a cookie.
func (h *AuthHandler) WebLogin(c *fiber.Ctx) error {
	req := models.LoginRequest{
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).Render("auth/login", fiber.Map{
			"Title": "Sign in",
			"Error": err.Error(),
			"Email": req.Email,
		}, "layouts/base")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    resp.AccessToken,
		Expires:  time.Now().Add(h.cfg.JWTAccessExpire),
		HTTPOnly: true,
		SameSite: "Lax",
		Secure:   h.cfg.AppEnv == "production",
	})
	return c.Redirect("/")
}

func (h *AuthHandler) WebLogout(c *fiber.Ctx) error {
	c.ClearCookie(middleware.TokenCookie)
	return c.Redirect("/login")
}
