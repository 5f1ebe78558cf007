package handler

import (
	"errors"
	"fmt"
	"time"

	"scraper-admin/internal/models"
	"scraper-admin/internal/service"
	"scraper-admin/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type ProxyHandler struct {
	monitor      *service.ProxyMonitor
	excelService *service.ExcelService
}

func NewProxyHandler(monitor *service.ProxyMonitor, excelService *service.ExcelService) *ProxyHandler {
	return &ProxyHandler{
		monitor:      monitor,
		excelService: excelService,
	}
}

type proxyListResponse struct {
	Statuses   []models.ProxyStatus `json:"statuses"`
	CheckedAt  *time.Time           `json:"checked_at"`
	Healthy    int                  `json:"healthy"`
	Unhealthy  int                  `json:"unhealthy"`
	Total      int                  `json:"total"`
	Running    bool                 `json:"running"`
	Providers  []string             `json:"providers"`
	Regions    []string             `json:"regions"`
	DurationMs int64                `json:"duration_ms"`
}

func proxyFilterFromQuery(c *fiber.Ctx) models.ProxyFilter {
	return models.ProxyFilter{
		Search:   c.Query("search"),
		Provider: c.Query("provider"),
		Region:   c.Query("region"),
		Health:   c.Query("health"),
	}
}

func (h *ProxyHandler) buildList(c *fiber.Ctx, snapshot models.ProxySnapshot, ok bool) proxyListResponse {
	endpoints := h.monitor.Endpoints()
	resp := proxyListResponse{
		Statuses:  service.FilterProxyStatuses(snapshot.Statuses, proxyFilterFromQuery(c)),
		Healthy:   snapshot.Healthy,
		Unhealthy: snapshot.Unhealthy,
		Total:     len(endpoints),
		Running:   h.monitor.Running(),
		Providers: service.ProxyProviders(endpoints),
		Regions:   service.ProxyRegions(endpoints),
	}
	if ok {
		checkedAt := snapshot.CheckedAt
		resp.CheckedAt = &checkedAt
		resp.DurationMs = snapshot.DurationMs
	}
	return resp
}

func (h *ProxyHandler) List(c *fiber.Ctx) error {
	snapshot, ok := h.monitor.Snapshot()
	return utils.SuccessResponse(c, "Proxy statuses retrieved successfully", h.buildList(c, snapshot, ok))
}

// Refresh runs a batch now unless one is running or was just requested.
func (h *ProxyHandler) Refresh(c *fiber.Ctx) error {
	snapshot, err := h.monitor.Refresh(c.UserContext())
	if errors.Is(err, service.ErrRefreshSkipped) {
		current, ok := h.monitor.Snapshot()
		return c.Status(fiber.StatusAccepted).JSON(utils.APIResponse{
			Success: true,
			Message: err.Error(),
			Data:    h.buildList(c, current, ok),
		})
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to refresh proxy statuses", err)
	}
	return utils.SuccessResponse(c, "Proxy statuses refreshed", h.buildList(c, snapshot, true))
}

func (h *ProxyHandler) Export(c *fiber.Ctx) error {
	snapshot, ok := h.monitor.Snapshot()
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusConflict, "No health check has completed yet", nil)
	}
	snapshot.Statuses = service.FilterProxyStatuses(snapshot.Statuses, proxyFilterFromQuery(c))

	filename := fmt.Sprintf("proxy_health_%s.xlsx", snapshot.CheckedAt.Format("20060102_150405"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := h.excelService.ExportProxyStatuses(snapshot, c.Response().BodyWriter()); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export proxy statuses", err)
	}
	return nil
}

func (h *ProxyHandler) Page(c *fiber.Ctx) error {
	snapshot, ok := h.monitor.Snapshot()
	return c.Render("proxies/index", fiber.Map{
		"Title":  "Proxy Health",
		"List":   h.buildList(c, snapshot, ok),
		"Filter": proxyFilterFromQuery(c),
	}, "layouts/base")
}
