package router

import (
	"scraper-admin/internal/config"
	"scraper-admin/internal/middleware"
	"scraper-admin/internal/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupAPIRoutes(router fiber.Router, h *handlers, cfg *config.Config, hasDB bool) {
	// Public routes
	auth := router.Group("/auth")
	if hasDB {
		auth.Post("/login", h.auth.Login)
	} else {
		auth.Post("/login", databaseUnavailable)
	}

	// Protected routes
	protected := router.Group("", middleware.AuthMiddleware(cfg))

	// Auth routes
	if hasDB {
		protected.Get("/auth/me", h.auth.Me)
	}

	// Upload form sessions
	uploads := protected.Group("/uploads")
	uploads.Post("/", h.upload.Stage)
	uploads.Get("/history", h.upload.History)
	uploads.Get("/history/export", h.upload.ExportHistory)
	uploads.Get("/:code", h.upload.Get)
	uploads.Get("/:code/preview", h.upload.Preview)
	uploads.Post("/:code/header", h.upload.SelectHeader)
	uploads.Get("/:code/columns/:index", h.upload.Column)
	uploads.Put("/:code/mapping", h.upload.Assign)
	uploads.Delete("/:code/mapping/:field", h.upload.Clear)
	uploads.Post("/:code/manual-brand", h.upload.ManualBrand)
	uploads.Post("/:code/submit", h.upload.Submit)
	uploads.Delete("/:code", h.upload.Discard)

	// Proxy health dashboard
	proxies := protected.Group("/proxies")
	proxies.Get("/", h.proxy.List)
	proxies.Post("/refresh", h.proxy.Refresh)
	proxies.Get("/export", h.proxy.Export)

	// Scraping jobs
	jobs := protected.Group("/jobs")
	jobs.Get("/:id", h.job.Get)
	jobs.Get("/:id/log", h.job.Log)
	jobs.Post("/:id/actions/:action", h.job.Action)

	// User administration (admin only)
	users := protected.Group("/users", middleware.AdminOnly())
	if hasDB {
		users.Get("/", h.users.List)
		users.Post("/", h.users.Create)
		users.Get("/:id", h.users.Get)
		users.Put("/:id", h.users.Update)
		users.Delete("/:id", h.users.Delete)
	} else {
		users.Use(databaseUnavailable)
	}
}

func databaseUnavailable(c *fiber.Ctx) error {
	return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Database is not available", nil)
}
