package handler

import (
	"scraper-admin/internal/config"
	"scraper-admin/internal/models"
	"scraper-admin/internal/service"

	"github.com/gofiber/fiber/v2"
)

type PageHandler struct {
	monitor *service.ProxyMonitor
	cfg     *config.Config
}

func NewPageHandler(monitor *service.ProxyMonitor, cfg *config.Config) *PageHandler {
	return &PageHandler{monitor: monitor, cfg: cfg}
}

func (h *PageHandler) Dashboard(c *fiber.Ctx) error {
	snapshot, ok := h.monitor.Snapshot()
	return c.Render("dashboard/index", fiber.Map{
		"Title":       "Dashboard",
		"Email":       c.Locals("email"),
		"HasSnapshot": ok,
		"Snapshot":    snapshot,
		"Endpoints":   len(h.monitor.Endpoints()),
	}, "layouts/base")
}

func (h *PageHandler) NewUpload(c *fiber.Ctx) error {
	return c.Render("uploads/new", fiber.Map{
		"Title":          "New Upload",
		"RequiredFields": models.RequiredFields,
		"OptionalFields": models.OptionalFields,
		"DefaultEmail":   h.cfg.DefaultSendToEmail,
		"MaxSizeMB":      h.cfg.UploadMaxSize / (1024 * 1024),
	}, "layouts/base")
}
