package middleware

import (
	"strings"

	"scraper-admin/internal/config"
	"scraper-admin/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// TokenCookie carries the access token for the HTML pages.
const TokenCookie = "access_token"

func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get Authorization header, falling back to the page cookie
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			if cookie := c.Cookies(TokenCookie); cookie != "" {
				authHeader = "Bearer " + cookie
			}
		}
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authorization header is required",
			})
		}

		// Check Bearer prefix
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid authorization header format",
			})
		}

		claims, err := utils.ValidateToken(parts[1], cfg.JWTSecret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid or expired token",
			})
		}

		storeClaims(c, claims)
		return c.Next()
	}
}

func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := c.Locals("role")
		if role != "admin" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Admin access required",
			})
		}
		return c.Next()
	}
}

// WebAuthMiddleware guards HTML pages with the token cookie and redirects to /login.
func WebAuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(TokenCookie)
		if token == "" {
			return c.Redirect("/login")
		}

		claims, err := utils.ValidateToken(token, cfg.JWTSecret)
		if err != nil {
			c.ClearCookie(TokenCookie)
			return c.Redirect("/login")
		}

		storeClaims(c, claims)
		return c.Next()
	}
}

func storeClaims(c *fiber.Ctx, claims *utils.JWTClaims) {
	c.Locals("user_id", claims.UserID)
	c.Locals("email", claims.Email)
	c.Locals("role", claims.Role)
}

// CurrentUserID returns the authenticated user id, or 0.
func CurrentUserID(c *fiber.Ctx) int {
	id, _ := c.Locals("user_id").(int)
	return id
}

func IsAdmin(c *fiber.Ctx) bool {
	return c.Locals("role") == "admin"
}
